package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/browser"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/robots"
)

// Click targets for spreadsheet-style views that expose a CSV export through
// their view menu. Text match covers English and French UIs.
const (
	viewMenuXPath    = `//div[contains(@class, 'viewMenuButton')]`
	downloadCSVXPath = `//*[contains(text(), 'Download') or contains(text(), 'Télécharger')]`
)

// BrowserFetcher renders a page in a pooled browser instance and hands the
// live instance to the extractor, which releases it.
type BrowserFetcher struct {
	pool    *browser.Pool
	advisor *robots.Advisor
	config  common.BrowserConfig
	logger  arbor.ILogger
}

func NewBrowserFetcher(pool *browser.Pool, advisor *robots.Advisor, config common.BrowserConfig) *BrowserFetcher {
	return &BrowserFetcher{
		pool:    pool,
		advisor: advisor,
		config:  config,
		logger:  common.GetLogger(),
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, cfg *models.SiteConfig) (*Payload, error) {
	userAgent := common.RandomUserAgent()
	if !respectRobots(ctx, f.advisor, cfg.URL, cfg.BaseURL, userAgent, f.logger) {
		return nil, nil
	}

	inst, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, nil
	}

	waitTime := time.Duration(cfg.WaitTime) * time.Second
	if waitTime <= 0 {
		waitTime = 10 * time.Second
	}

	runCtx, cancel := context.WithTimeout(inst.Context(), f.config.PageTimeout)
	defer cancel()

	err = chromedp.Run(runCtx,
		chromedp.Navigate(cfg.URL),
		chromedp.Sleep(waitTime),
	)
	if err != nil {
		f.logger.Error().
			Str("url", cfg.URL).
			Err(err).
			Msg("Browser fetch failed")
		f.pool.Release(inst)
		return nil, nil
	}

	return &Payload{Instance: inst}, nil
}

// BrowserCSVFetcher drives a page's own export UI: open the view menu, click
// the CSV download, then poll the instance's download directory until the
// file lands.
type BrowserCSVFetcher struct {
	pool   *browser.Pool
	config common.BrowserConfig
	logger arbor.ILogger
}

func NewBrowserCSVFetcher(pool *browser.Pool, config common.BrowserConfig) *BrowserCSVFetcher {
	return &BrowserCSVFetcher{
		pool:   pool,
		config: config,
		logger: common.GetLogger(),
	}
}

func (f *BrowserCSVFetcher) Fetch(ctx context.Context, cfg *models.SiteConfig) (*Payload, error) {
	inst, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, nil
	}
	defer f.pool.Release(inst)

	waitTime := time.Duration(cfg.WaitTime) * time.Second
	if waitTime <= 0 {
		waitTime = 10 * time.Second
	}

	runCtx, cancel := context.WithTimeout(inst.Context(), f.config.PageTimeout)
	defer cancel()

	f.logger.Info().
		Str("url", cfg.URL).
		Msg("Opening browser for CSV download")

	err = chromedp.Run(runCtx,
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(inst.DownloadDir()),
		chromedp.Navigate(cfg.URL),
		chromedp.Sleep(waitTime),
		chromedp.Click(viewMenuXPath, chromedp.BySearch),
		chromedp.Sleep(2*time.Second),
		chromedp.Click(downloadCSVXPath, chromedp.BySearch),
	)
	if err != nil {
		f.logger.Error().
			Str("url", cfg.URL).
			Err(err).
			Msg("CSV download click sequence failed")
		return nil, nil
	}

	content, ok := f.waitForDownload(runCtx, inst.DownloadDir())
	if !ok {
		return nil, nil
	}
	return &Payload{CSV: content}, nil
}

// waitForDownload polls the download directory until a .csv exists with no
// in-progress .crdownload alongside it, then reads and removes the file.
func (f *BrowserCSVFetcher) waitForDownload(ctx context.Context, dir string) (string, bool) {
	deadline := time.Now().Add(f.config.DownloadTimeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(500 * time.Millisecond):
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		var csvFile string
		inProgress := false
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, ".crdownload") {
				inProgress = true
			}
			if strings.HasSuffix(name, ".csv") {
				csvFile = name
			}
		}

		if csvFile == "" || inProgress {
			continue
		}

		path := filepath.Join(dir, csvFile)
		data, err := os.ReadFile(path)
		if err != nil {
			f.logger.Error().
				Str("file", path).
				Err(err).
				Msg("Failed to read downloaded CSV")
			return "", false
		}
		os.Remove(path)

		f.logger.Info().
			Str("file", csvFile).
			Msg("Downloaded CSV read")
		return string(data), true
	}

	f.logger.Error().
		Str("dir", dir).
		Msg("Timed out waiting for CSV download")
	return "", false
}
