// Package robots answers "may I fetch this URL" for the network-facing
// fetchers. Rules are parsed from each site's robots.txt, cached per request
// URL, and revalidated daily by a background refresher.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// Advisor resolves robots.txt rules for request URLs. Any failure along the
// way (network, malformed robots.txt) yields a conservative deny that is
// never cached, so the next cycle retries.
type Advisor struct {
	client *http.Client
	cache  *Cache
	logger arbor.ILogger
}

func NewAdvisor(client *http.Client, cache *Cache) *Advisor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Advisor{
		client: client,
		cache:  cache,
		logger: common.GetLogger(),
	}
}

// GetRules returns the robots rules governing requestURL. The cache is keyed
// by request URL; a miss fetches <baseURL>/robots.txt, and the result is
// cached only when fetching is allowed.
func (a *Advisor) GetRules(ctx context.Context, requestURL, baseURL, userAgent string) models.RobotsRules {
	if rules, ok := a.cache.Get(requestURL); ok {
		return rules
	}

	rules, err := a.parse(ctx, requestURL, baseURL, userAgent)
	if err != nil {
		a.logger.Warn().
			Str("url", requestURL).
			Err(err).
			Msg("Robots lookup failed, denying fetch")
		return deny(userAgent)
	}

	if rules.CanFetch {
		a.cache.Set(requestURL, rules)
	}
	return rules
}

// Revalidate parses robots.txt afresh, bypassing the cache. Used by the
// refresher to decide whether a cached entry is still valid.
func (a *Advisor) Revalidate(ctx context.Context, requestURL, userAgent string) bool {
	parsed, err := url.Parse(requestURL)
	if err != nil {
		return false
	}
	baseURL := parsed.Scheme + "://" + parsed.Host

	rules, err := a.parse(ctx, requestURL, baseURL, userAgent)
	if err != nil {
		return false
	}
	return rules.CanFetch
}

func (a *Advisor) parse(ctx context.Context, requestURL, baseURL, userAgent string) (models.RobotsRules, error) {
	robotsURL := strings.TrimRight(baseURL, "/") + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return models.RobotsRules{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RobotsRules{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.RobotsRules{}, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return models.RobotsRules{}, err
	}

	group := data.FindGroup(userAgent)
	delay := group.CrawlDelay
	if delay <= 0 {
		delay = models.DefaultCrawlDelay
	}

	return models.RobotsRules{
		CanFetch:   group.Test(requestPath(requestURL)),
		CrawlDelay: delay,
		UserAgent:  userAgent,
	}, nil
}

// requestPath reduces a request URL to the path robots.txt rules match
// against.
func requestPath(requestURL string) string {
	parsed, err := url.Parse(requestURL)
	if err != nil {
		return requestURL
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return path
}

func deny(userAgent string) models.RobotsRules {
	return models.RobotsRules{
		CanFetch:   false,
		CrawlDelay: models.DefaultCrawlDelay,
		UserAgent:  userAgent,
	}
}
