package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/robots"
)

// respectRobots consults the advisor and, when allowed, waits out the crawl
// delay. Returns false when the site may not be fetched this cycle.
func respectRobots(ctx context.Context, advisor *robots.Advisor, requestURL, baseURL, userAgent string, logger arbor.ILogger) bool {
	rules := advisor.GetRules(ctx, requestURL, baseURL, userAgent)
	if !rules.CanFetch {
		logger.Warn().
			Str("url", requestURL).
			Msg("robots.txt disallows fetching")
		return false
	}

	select {
	case <-time.After(rules.CrawlDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

// HTTPFetcher retrieves page markup over plain HTTP, gated by robots.txt.
type HTTPFetcher struct {
	client  *http.Client
	advisor *robots.Advisor
	logger  arbor.ILogger
}

func NewHTTPFetcher(client *http.Client, advisor *robots.Advisor) *HTTPFetcher {
	return &HTTPFetcher{
		client:  client,
		advisor: advisor,
		logger:  common.GetLogger(),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, cfg *models.SiteConfig) (*Payload, error) {
	userAgent := common.RandomUserAgent()
	if !respectRobots(ctx, f.advisor, cfg.URL, cfg.BaseURL, userAgent, f.logger) {
		return nil, nil
	}

	body, err := f.get(ctx, cfg.URL, userAgent, "text/html")
	if err != nil {
		f.logger.Error().
			Str("url", cfg.URL).
			Err(err).
			Msg("HTTP fetch failed")
		return nil, nil
	}
	return &Payload{HTML: body}, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url, userAgent, accept string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DownloadFetcher retrieves a vendor-approved CSV export. Robots is not
// consulted; the export endpoint is explicitly published for download.
type DownloadFetcher struct {
	client *http.Client
	logger arbor.ILogger
}

func NewDownloadFetcher(client *http.Client) *DownloadFetcher {
	return &DownloadFetcher{
		client: client,
		logger: common.GetLogger(),
	}
}

func (f *DownloadFetcher) Fetch(ctx context.Context, cfg *models.SiteConfig) (*Payload, error) {
	accept := cfg.Accept
	if accept == "" {
		accept = "text/csv"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("User-Agent", common.RandomUserAgent())
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error().
			Str("url", cfg.URL).
			Err(err).
			Msg("Download fetch failed")
		return nil, nil
	}
	defer resp.Body.Close()

	// If the page is no longer accessible the download should not work either
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Error().
			Str("url", cfg.URL).
			Int("status", resp.StatusCode).
			Msg("Download fetch returned bad status")
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Error().
			Str("url", cfg.URL).
			Err(err).
			Msg("Failed to read download body")
		return nil, nil
	}
	return &Payload{CSV: string(body)}, nil
}
