package parser

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/scout/internal/browser"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/extract"
	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/pipeline"
	"github.com/ternarybob/scout/internal/robots"
)

// Builder assembles parsers for each parser type from shared resources. The
// browser pool and HTTP client are shared; fetcher and extractor pairs are
// cheap and built per site.
type Builder struct {
	client      *http.Client
	advisor     *robots.Advisor
	pool        *browser.Pool
	browserCfg  common.BrowserConfig
	hirebaseCfg common.HireBaseConfig
	pipeline    *pipeline.Pipeline
}

func NewBuilder(
	client *http.Client,
	advisor *robots.Advisor,
	pool *browser.Pool,
	browserCfg common.BrowserConfig,
	hirebaseCfg common.HireBaseConfig,
	pl *pipeline.Pipeline,
) *Builder {
	return &Builder{
		client:      client,
		advisor:     advisor,
		pool:        pool,
		browserCfg:  browserCfg,
		hirebaseCfg: hirebaseCfg,
		pipeline:    pl,
	}
}

// Build returns a parser for the site's parser type.
func (b *Builder) Build(cfg *models.SiteConfig) (*Parser, error) {
	kind := cfg.Kind()
	tag := string(kind)

	switch kind {
	case models.ParserTypeStatic:
		return New(tag, fetch.NewHTTPFetcher(b.client, b.advisor), extract.NewHTMLExtractor(), b.pipeline), nil
	case models.ParserTypeJS:
		return New(tag, fetch.NewBrowserFetcher(b.pool, b.advisor, b.browserCfg), extract.NewDOMExtractor(b.pool), b.pipeline), nil
	case models.ParserTypeDownload:
		return New(tag, fetch.NewDownloadFetcher(b.client), extract.NewCSVExtractor(), b.pipeline), nil
	case models.ParserTypeSelDownload:
		return New(tag, fetch.NewBrowserCSVFetcher(b.pool, b.browserCfg), extract.NewCSVExtractor(), b.pipeline), nil
	case models.ParserTypeHireBase:
		return New(tag, fetch.NewHireBaseFetcher(b.client, b.hirebaseCfg), extract.NewHireBaseExtractor(), b.pipeline), nil
	default:
		return nil, fmt.Errorf("%w: unknown parser type %q for %s", ErrInvalidConfig, cfg.ParserType, cfg.SiteID)
	}
}
