package extract

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/browser"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
)

// DOMExtractor reads rendered pages through the browser instance the fetcher
// left in the payload. The instance is returned to the pool on every exit
// path. A selector that fails yields an empty column rather than aborting the
// cycle.
type DOMExtractor struct {
	pool   *browser.Pool
	logger arbor.ILogger
}

func NewDOMExtractor(pool *browser.Pool) *DOMExtractor {
	return &DOMExtractor{
		pool:   pool,
		logger: common.GetLogger(),
	}
}

func (e *DOMExtractor) Extract(ctx context.Context, payload *fetch.Payload, cfg *models.SiteConfig) (*models.Frame, error) {
	inst := payload.Instance
	if inst == nil {
		return nil, fmt.Errorf("no browser instance in payload")
	}
	defer e.pool.Release(inst)

	cols := make(map[string][]string)
	for field, selector := range cfg.Selectors {
		values, err := e.selectTexts(inst.Context(), field, selector)
		if err != nil {
			e.logger.Error().
				Str("url", cfg.URL).
				Str("selector", selector).
				Err(err).
				Msg("DOM selector failed")
			cols[field] = []string{}
			continue
		}
		cols[field] = values
	}

	e.logger.Debug().
		Str("url", cfg.URL).
		Int("columns", len(cols)).
		Msg("Extracted DOM data")

	return models.NewFrame(cols)
}

func (e *DOMExtractor) selectTexts(ctx context.Context, field, selector string) ([]string, error) {
	var script string
	if field == models.FieldApplicationLink {
		script = fmt.Sprintf(
			`Array.from(document.querySelectorAll(%q)).map(el => el.getAttribute("href") || el.innerText.trim())`,
			selector)
	} else {
		script = fmt.Sprintf(
			`Array.from(document.querySelectorAll(%q)).map(el => el.innerText.trim()).filter(t => t !== "")`,
			selector)
	}

	var values []string
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &values)); err != nil {
		return nil, err
	}
	return values, nil
}
