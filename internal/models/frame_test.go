package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(map[string][]string{
		FieldPosition:    {"Engineer", "Designer"},
		FieldCompanyName: {"Acme", "Globex"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{FieldCompanyName, FieldPosition}, f.Fields())
	assert.Equal(t, []string{"Acme", "Globex"}, f.Column(FieldCompanyName))
}

func TestNewFrameRejectsUnequalColumns(t *testing.T) {
	_, err := NewFrame(map[string][]string{
		FieldPosition:    {"Engineer"},
		FieldCompanyName: {"Acme", "Globex"},
	})
	assert.Error(t, err)
}

func TestNewFrameRejectsUnknownColumn(t *testing.T) {
	_, err := NewFrame(map[string][]string{"salary": {"100"}})
	assert.Error(t, err)
}

func TestFrameFilterPreservesOrder(t *testing.T) {
	f, err := NewFrame(map[string][]string{
		FieldPosition: {"a", "b", "c", "d"},
	})
	require.NoError(t, err)

	kept := f.Filter(func(i int) bool { return i%2 == 0 })
	assert.Equal(t, []string{"a", "c"}, kept.Column(FieldPosition))
}

func TestFrameHead(t *testing.T) {
	f, err := NewFrame(map[string][]string{
		FieldPosition: {"a", "b", "c"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.Head(2).Len())
	assert.Equal(t, 3, f.Head(10).Len())
	assert.True(t, f.Head(0).IsEmpty())
}

func TestRowFingerprintStableOrder(t *testing.T) {
	f, err := NewFrame(map[string][]string{
		FieldPosition:    {"Engineer"},
		FieldCompanyName: {"Acme"},
		FieldDate:        {"today"},
	})
	require.NoError(t, err)

	fp := f.Row(0).Fingerprint()
	assert.Equal(t, `["Acme", "Engineer", "today"]`, fp)
	assert.Equal(t, fp, f.Row(0).Fingerprint())
}

func TestSiteConfigKindAlias(t *testing.T) {
	cfg := &SiteConfig{ParserType: "browser_download"}
	assert.Equal(t, ParserTypeSelDownload, cfg.Kind())

	cfg = &SiteConfig{ParserType: " static "}
	assert.Equal(t, ParserTypeStatic, cfg.Kind())
}

func TestSiteConfigCadence(t *testing.T) {
	assert.Equal(t, CadenceHTML, (&SiteConfig{ParserType: "JS"}).Cadence())
	assert.Equal(t, CadenceDownload, (&SiteConfig{ParserType: "DOWNLOAD"}).Cadence())
	assert.Equal(t, CadenceDownload, (&SiteConfig{ParserType: "SEL_DOWNLOAD"}).Cadence())
}

func TestFilterCatalogResolve(t *testing.T) {
	catalog := &FilterCatalog{
		General: map[string]map[string][]string{
			"ignore": {FieldPosition: {"Senior", "LEAD"}},
		},
		Specific: map[string]map[string]map[string][]string{
			"site_a": {
				"ignore": {FieldPosition: {"senior", "Staff"}},
				"scrub":  {FieldCompanyName: {"Ltd"}},
			},
		},
	}

	resolved := catalog.Resolve("site_a", []string{FieldPosition, FieldCompanyName}, []string{"ignore", "scrub"})
	assert.Equal(t, []string{"lead", "senior", "staff"}, resolved["ignore"][FieldPosition])
	assert.Equal(t, []string{"ltd"}, resolved["scrub"][FieldCompanyName])

	resolved = catalog.Resolve("site_b", []string{FieldPosition}, []string{"ignore", "scrub"})
	assert.Equal(t, []string{"lead", "senior"}, resolved["ignore"][FieldPosition])
	_, ok := resolved["scrub"]
	assert.False(t, ok)
}
