package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
)

// HTMLExtractor selects elements from static markup with CSS selectors. The
// application link prefers the href attribute and falls back to element text.
type HTMLExtractor struct {
	logger arbor.ILogger
}

func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{logger: common.GetLogger()}
}

func (e *HTMLExtractor) Extract(ctx context.Context, payload *fetch.Payload, cfg *models.SiteConfig) (*models.Frame, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	cols := make(map[string][]string)
	for field, selector := range cfg.Selectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}

		values := make([]string, 0, selection.Length())
		selection.Each(func(_ int, s *goquery.Selection) {
			if field == models.FieldApplicationLink {
				if href, ok := s.Attr("href"); ok {
					values = append(values, href)
					return
				}
			}
			values = append(values, strings.TrimSpace(s.Text()))
		})
		cols[field] = values
	}

	e.logger.Debug().
		Str("url", cfg.URL).
		Int("columns", len(cols)).
		Msg("Extracted HTML data")

	return models.NewFrame(cols)
}
