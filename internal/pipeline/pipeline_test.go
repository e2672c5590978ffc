package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/tracker"
)

func frameOf(t *testing.T, cols map[string][]string) *models.Frame {
	t.Helper()
	frame, err := models.NewFrame(cols)
	require.NoError(t, err)
	return frame
}

func TestChangeDetectionFirstSighting(t *testing.T) {
	tr := tracker.New()
	proc := NewChangeDetection(tr, nil, nil)
	cfg := &models.SiteConfig{URL: "https://example.com/jobs"}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a", "b", "c"},
	})

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, frame.Row(0).Fingerprint(), tr.Get(cfg.URL))
}

func TestChangeDetectionUnchanged(t *testing.T) {
	tr := tracker.New()
	proc := NewChangeDetection(tr, nil, nil)
	cfg := &models.SiteConfig{URL: "https://example.com/jobs"}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a", "b"},
	})
	tr.Track(cfg.URL, frame.Row(0).Fingerprint())

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
	assert.Equal(t, frame.Row(0).Fingerprint(), tr.Get(cfg.URL))
}

func TestChangeDetectionKeepsPrefixAboveBoundary(t *testing.T) {
	tr := tracker.New()
	proc := NewChangeDetection(tr, nil, nil)
	cfg := &models.SiteConfig{URL: "https://example.com/jobs"}

	old := frameOf(t, map[string][]string{
		models.FieldPosition: {"c", "d"},
	})
	tr.Track(cfg.URL, old.Row(0).Fingerprint())

	current := frameOf(t, map[string][]string{
		models.FieldPosition: {"a", "b", "c", "d"},
	})

	out, err := proc.Process(context.Background(), current, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Column(models.FieldPosition))
	assert.Equal(t, current.Row(0).Fingerprint(), tr.Get(cfg.URL))
}

func TestChangeDetectionFullTurnover(t *testing.T) {
	tr := tracker.New()
	proc := NewChangeDetection(tr, nil, nil)
	cfg := &models.SiteConfig{URL: "https://example.com/jobs"}

	tr.Track(cfg.URL, `["gone"]`)

	current := frameOf(t, map[string][]string{
		models.FieldPosition: {"a", "b", "c"},
	})

	out, err := proc.Process(context.Background(), current, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
}

func TestDateFilterRelative(t *testing.T) {
	proc := NewDateFilter(nil, nil)
	cfg := &models.SiteConfig{
		URL:        "https://example.com/jobs",
		DateFormat: "--relative {n} days ago",
	}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a", "b", "c", "d", "e"},
		models.FieldDate:     {"0 days ago", "1 Days Ago", " 1days ago", "2 days ago", "not a date"},
	})

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Column(models.FieldPosition))
}

func TestDateFilterAbsolute(t *testing.T) {
	proc := NewDateFilter(nil, nil)
	proc.now = func() time.Time {
		return time.Date(2026, 3, 10, 15, 30, 0, 0, time.Local)
	}
	cfg := &models.SiteConfig{
		URL:        "https://example.com/jobs",
		DateFormat: "2006-01-02",
	}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a", "b", "c"},
		models.FieldDate:     {"2026-03-10", "2026-03-09", "2026-03-07"},
	})

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Column(models.FieldPosition))
}

func TestDateFilterMissingColumn(t *testing.T) {
	proc := NewDateFilter(nil, nil)
	cfg := &models.SiteConfig{URL: "https://example.com/jobs", DateFormat: "2006-01-02"}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a"},
	})

	_, err := proc.Process(context.Background(), frame, cfg)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFiltersIgnoreDropsMatchingRows(t *testing.T) {
	catalog := &models.FilterCatalog{
		General: map[string]map[string][]string{
			models.FilterIgnore: {models.FieldPosition: {"senior"}},
		},
	}
	proc := NewFilters(catalog, nil, nil)
	cfg := &models.SiteConfig{
		SiteID:    "site_a",
		URL:       "https://example.com/jobs",
		Selectors: map[string]string{models.FieldPosition: ".title"},
	}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"Engineer", "Senior Engineer", "SENIOR Designer", "Analyst"},
	})

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Engineer", "Analyst"}, out.Column(models.FieldPosition))
}

func TestFiltersScrubForwardFills(t *testing.T) {
	catalog := &models.FilterCatalog{
		General: map[string]map[string][]string{
			models.FilterScrub: {models.FieldCompanyName: {"ditto"}},
		},
	}
	proc := NewFilters(catalog, nil, nil)
	cfg := &models.SiteConfig{
		SiteID:    "site_a",
		URL:       "https://example.com/jobs",
		Selectors: map[string]string{models.FieldCompanyName: ".company"},
	}

	frame := frameOf(t, map[string][]string{
		models.FieldCompanyName: {"Acme", "Ditto", "ditto", "Globex", "Ditto"},
	})

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Acme", "Acme", "Globex", "Globex"}, out.Column(models.FieldCompanyName))
}

func TestFiltersMissingColumnFails(t *testing.T) {
	catalog := &models.FilterCatalog{
		General: map[string]map[string][]string{
			models.FilterIgnore: {models.FieldCompanyName: {"x"}},
		},
	}
	proc := NewFilters(catalog, nil, nil)
	cfg := &models.SiteConfig{
		SiteID:    "site_a",
		URL:       "https://example.com/jobs",
		Selectors: map[string]string{models.FieldCompanyName: ".company"},
	}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a"},
	})

	_, err := proc.Process(context.Background(), frame, cfg)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestPositionNormalizationReplacesCommaVariants(t *testing.T) {
	proc := NewPositionNormalization(nil, nil)
	cfg := &models.SiteConfig{URL: "https://example.com/jobs"}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"Engineer, Backend", "データ、エンジニア", "Quant，Dev", "Plain"},
	})

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Engineer -  Backend", "データ - エンジニア", "Quant - Dev", "Plain"}, out.Column(models.FieldPosition))
}

func TestPositionNormalizationMissingColumnPassesThrough(t *testing.T) {
	proc := NewPositionNormalization(nil, nil)
	cfg := &models.SiteConfig{URL: "https://example.com/jobs"}

	frame := frameOf(t, map[string][]string{
		models.FieldCompanyName: {"Acme"},
	})

	out, err := proc.Process(context.Background(), frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, frame, out)
}

func TestApplicabilityWhitelistWins(t *testing.T) {
	both := applicability{include: []string{"STATIC"}, exclude: []string{"STATIC"}}
	assert.True(t, both.AppliesTo("STATIC"))
	assert.False(t, both.AppliesTo("JS"))

	blacklistOnly := applicability{exclude: []string{"HIRE_BASE"}}
	assert.False(t, blacklistOnly.AppliesTo("HIRE_BASE"))
	assert.True(t, blacklistOnly.AppliesTo("STATIC"))

	open := applicability{}
	assert.True(t, open.AppliesTo("anything"))
}

func TestPipelineShortCircuitsOnEmpty(t *testing.T) {
	tr := tracker.New()
	cfg := &models.SiteConfig{
		URL:        "https://example.com/jobs",
		DateFormat: "--relative {n} days ago",
	}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a"},
		models.FieldDate:     {"5 days ago"},
	})

	// DateFilter empties the frame; normalization must not run after that
	pl := New(
		NewChangeDetection(tr, nil, nil),
		NewDateFilter(nil, nil),
		NewPositionNormalization(nil, nil),
	)

	out, err := pl.Execute(context.Background(), frame, cfg, string(models.ParserTypeStatic))
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
	// Tracker still advanced by change detection before the date filter ran
	assert.True(t, tr.Has(cfg.URL))
}

func TestPipelineSkipsInapplicableProcessors(t *testing.T) {
	tr := tracker.New()
	cfg := &models.SiteConfig{URL: "https://example.com/jobs"}

	frame := frameOf(t, map[string][]string{
		models.FieldPosition: {"a,b"},
	})

	pl := New(
		NewChangeDetection(tr, []string{"STATIC"}, nil),
		NewPositionNormalization(nil, []string{"HIRE_BASE"}),
	)

	out, err := pl.Execute(context.Background(), frame, cfg, "HIRE_BASE")
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b"}, out.Column(models.FieldPosition))
	assert.False(t, tr.Has(cfg.URL), "change detection whitelisted to STATIC must not run")
}
