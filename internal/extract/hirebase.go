package extract

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
)

// HireBaseExtractor walks the jobs array of each API response and plucks
// fields by dotted JSON path. Values are flattened to strings: arrays are
// comma-joined, objects become "key: value" lines, null becomes empty.
type HireBaseExtractor struct {
	logger arbor.ILogger
}

func NewHireBaseExtractor() *HireBaseExtractor {
	return &HireBaseExtractor{logger: common.GetLogger()}
}

func (e *HireBaseExtractor) Extract(ctx context.Context, payload *fetch.Payload, cfg *models.SiteConfig) (*models.Frame, error) {
	cols := make(map[string][]string, len(cfg.Selectors))
	for field := range cfg.Selectors {
		cols[field] = []string{}
	}

	total := 0
	for _, document := range payload.Documents {
		jobs := gjson.Get(document, "jobs")
		if !jobs.Exists() {
			continue
		}
		jobs.ForEach(func(_, job gjson.Result) bool {
			for field, path := range cfg.Selectors {
				cols[field] = append(cols[field], formatValue(job.Get(path)))
			}
			total++
			return true
		})
	}

	e.logger.Debug().
		Str("url", cfg.URL).
		Int("documents", len(payload.Documents)).
		Int("jobs", total).
		Msg("Extracted API data")

	return models.NewFrame(cols)
}

// formatValue flattens a JSON value into a display string.
func formatValue(value gjson.Result) string {
	switch {
	case !value.Exists() || value.Type == gjson.Null:
		return ""
	case value.IsArray():
		var parts []string
		value.ForEach(func(_, item gjson.Result) bool {
			parts = append(parts, formatValue(item))
			return true
		})
		return strings.Join(parts, ", ")
	case value.IsObject():
		var lines []string
		value.ForEach(func(key, item gjson.Result) bool {
			lines = append(lines, key.String()+": "+formatValue(item))
			return true
		})
		return strings.Join(lines, "\n")
	default:
		return value.String()
	}
}
