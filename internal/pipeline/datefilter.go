package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// RelativeDateMarker flags a date_format as a relative template such as
// "--relative {n} days ago" rather than an absolute layout.
const RelativeDateMarker = "--relative"

// DateFilter keeps rows dated today or yesterday. The site's date_format is
// either an absolute layout or a relative template containing one {n}
// placeholder for "n days ago".
type DateFilter struct {
	applicability
	logger arbor.ILogger
	now    func() time.Time
}

func NewDateFilter(include, exclude []string) *DateFilter {
	return &DateFilter{
		applicability: applicability{include: include, exclude: exclude},
		logger:        common.GetLogger(),
		now:           time.Now,
	}
}

func (p *DateFilter) Name() string { return "date_filter" }

func (p *DateFilter) Process(ctx context.Context, frame *models.Frame, cfg *models.SiteConfig) (*models.Frame, error) {
	if frame.IsEmpty() {
		return frame, nil
	}

	if !frame.HasColumn(models.FieldDate) {
		p.logger.Warn().
			Str("url", cfg.URL).
			Msg("Date column not found in frame")
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, models.FieldDate)
	}

	if strings.Contains(cfg.DateFormat, RelativeDateMarker) {
		template := strings.TrimSpace(strings.ReplaceAll(cfg.DateFormat, RelativeDateMarker, ""))
		return p.filterRelative(frame, template)
	}
	return p.filterAbsolute(frame, cfg.DateFormat)
}

// filterRelative extracts the day count from values like "3 days ago" and
// keeps rows with 0 or 1. The template is escaped so stray punctuation
// survives, the {n} placeholder becomes a digit capture, and spaces tolerate
// "0 days" as well as "0days".
func (p *DateFilter) filterRelative(frame *models.Frame, template string) (*models.Frame, error) {
	pattern := regexp.QuoteMeta(template)
	pattern = strings.ReplaceAll(pattern, `\{n\}`, `(\d+)`)
	pattern = strings.ReplaceAll(pattern, " ", `\s*`)

	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid relative date template %q: %w", template, err)
	}

	dates := frame.Column(models.FieldDate)
	return frame.Filter(func(i int) bool {
		match := re.FindStringSubmatch(strings.TrimSpace(dates[i]))
		if len(match) < 2 {
			return false
		}
		days, err := strconv.Atoi(match[1])
		if err != nil {
			return false
		}
		return days == 0 || days == 1
	}), nil
}

func (p *DateFilter) filterAbsolute(frame *models.Frame, layout string) (*models.Frame, error) {
	today := truncateToDay(p.now())
	yesterday := today.AddDate(0, 0, -1)

	dates := frame.Column(models.FieldDate)
	parsed := make([]time.Time, frame.Len())
	for i, value := range dates {
		t, err := time.ParseInLocation(layout, strings.TrimSpace(value), time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date %q with layout %q: %w", value, layout, err)
		}
		parsed[i] = truncateToDay(t)
	}

	return frame.Filter(func(i int) bool {
		return parsed[i].Equal(today) || parsed[i].Equal(yesterday)
	}), nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
