package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// Filters applies the catalog's term lists to the frame. Strategy order
// matters: ignore drops rows outright before scrub rewrites grouped columns.
type Filters struct {
	applicability
	catalog *models.FilterCatalog
	logger  arbor.ILogger
}

func NewFilters(catalog *models.FilterCatalog, include, exclude []string) *Filters {
	return &Filters{
		applicability: applicability{include: include, exclude: exclude},
		catalog:       catalog,
		logger:        common.GetLogger(),
	}
}

func (p *Filters) Name() string { return "filters" }

func (p *Filters) Process(ctx context.Context, frame *models.Frame, cfg *models.SiteConfig) (*models.Frame, error) {
	if frame.IsEmpty() || p.catalog == nil {
		return frame, nil
	}

	columns := make([]string, 0, len(cfg.Selectors))
	for field := range cfg.Selectors {
		columns = append(columns, field)
	}

	categories := []string{models.FilterIgnore, models.FilterScrub}
	resolved := p.catalog.Resolve(cfg.SiteID, columns, categories)

	for _, category := range categories {
		colMap, ok := resolved[category]
		if !ok {
			continue
		}
		p.logger.Debug().
			Str("url", cfg.URL).
			Str("category", category).
			Msg("Applying filter category")

		for column, terms := range colMap {
			if !frame.HasColumn(column) {
				p.logger.Warn().
					Str("url", cfg.URL).
					Str("column", column).
					Msg("Filter column not found in frame")
				return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
			}

			var err error
			switch category {
			case models.FilterIgnore:
				frame = applyIgnore(frame, column, terms)
			case models.FilterScrub:
				err = applyScrub(frame, column, terms)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	return frame, nil
}

// applyIgnore drops rows whose column value contains any term,
// case-insensitively.
func applyIgnore(frame *models.Frame, column string, terms []string) *models.Frame {
	values := frame.Column(column)
	return frame.Filter(func(i int) bool {
		value := strings.ToLower(values[i])
		for _, term := range terms {
			if strings.Contains(value, term) {
				return false
			}
		}
		return true
	})
}

// applyScrub blanks values that exactly match a term and forward-fills them
// with the last surviving value above. Sources that group rows under one
// company leave marker tokens in the trailing rows; scrubbing propagates the
// company downward.
func applyScrub(frame *models.Frame, column string, terms []string) error {
	tokens := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		tokens[term] = struct{}{}
	}

	values := frame.Column(column)
	filled := make([]string, len(values))
	last := ""
	for i, value := range values {
		if _, scrubbed := tokens[strings.ToLower(value)]; scrubbed {
			filled[i] = last
			continue
		}
		filled[i] = value
		last = value
	}
	return frame.SetColumn(column, filled)
}
