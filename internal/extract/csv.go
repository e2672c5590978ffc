package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
)

// CSVExtractor projects CSV columns onto logical fields by header name.
// Selectors whose header is absent are simply omitted from the frame.
type CSVExtractor struct {
	logger arbor.ILogger
}

func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{logger: common.GetLogger()}
}

func (e *CSVExtractor) Extract(ctx context.Context, payload *fetch.Payload, cfg *models.SiteConfig) (*models.Frame, error) {
	reader := csv.NewReader(strings.NewReader(payload.CSV))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return models.NewFrame(nil)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	rows := records[1:]
	cols := make(map[string][]string)
	for field, selector := range cfg.Selectors {
		col, ok := index[selector]
		if !ok {
			continue
		}
		values := make([]string, 0, len(rows))
		for _, record := range rows {
			if col < len(record) {
				values = append(values, record[col])
			} else {
				values = append(values, "")
			}
		}
		cols[field] = values
	}

	e.logger.Debug().
		Str("url", cfg.URL).
		Int("rows", len(rows)).
		Int("columns", len(cols)).
		Msg("Extracted CSV data")

	return models.NewFrame(cols)
}
