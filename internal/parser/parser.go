// Package parser composes a fetcher, an extractor and the processing pipeline
// into the single parse operation a site worker drives each cycle.
package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/extract"
	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/pipeline"
)

// ErrInvalidConfig marks a site configuration the parser cannot run with.
var ErrInvalidConfig = errors.New("invalid site configuration")

// Parser runs fetch, extract and process for one site. A nil row slice with a
// nil error means "nothing new this cycle".
type Parser struct {
	tag       string
	fetcher   fetch.Fetcher
	extractor extract.Extractor
	pipeline  *pipeline.Pipeline
	logger    arbor.ILogger
}

func New(tag string, fetcher fetch.Fetcher, extractor extract.Extractor, pl *pipeline.Pipeline) *Parser {
	return &Parser{
		tag:       tag,
		fetcher:   fetcher,
		extractor: extractor,
		pipeline:  pl,
		logger:    common.GetLogger(),
	}
}

// Tag returns the parser tag used for bus messages and pipeline
// applicability.
func (p *Parser) Tag() string { return p.tag }

// Parse runs one full cycle for the site.
func (p *Parser) Parse(ctx context.Context, cfg *models.SiteConfig) ([]models.Row, error) {
	if len(cfg.Selectors) == 0 {
		return nil, fmt.Errorf("%w: no selectors for %s", ErrInvalidConfig, cfg.SiteID)
	}

	payload, err := p.fetcher.Fetch(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if payload == nil {
		return nil, nil
	}

	frame, err := p.extractor.Extract(ctx, payload, cfg)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if frame.IsEmpty() {
		p.logger.Debug().
			Str("url", cfg.URL).
			Str("parser", p.tag).
			Msg("Extraction produced no rows")
		return nil, nil
	}

	frame, err = p.pipeline.Execute(ctx, frame, cfg, p.tag)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if frame.IsEmpty() {
		return nil, nil
	}

	p.logger.Info().
		Str("url", cfg.URL).
		Str("parser", p.tag).
		Int("rows", frame.Len()).
		Msg("Parse cycle produced new rows")
	return frame.Rows(), nil
}
