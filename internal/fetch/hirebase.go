package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// HireBaseFetcher submits the configured query set to a job-search API and
// returns one raw JSON document per query. Individual query failures are
// logged and skipped so one bad query cannot cost the whole cycle.
type HireBaseFetcher struct {
	client  *http.Client
	config  common.HireBaseConfig
	limiter *rate.Limiter
	logger  arbor.ILogger
	now     func() time.Time
}

func NewHireBaseFetcher(client *http.Client, config common.HireBaseConfig) *HireBaseFetcher {
	return &HireBaseFetcher{
		client: client,
		config: config,
		// The vendor tolerates at most one search request per second
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  common.GetLogger(),
		now:     time.Now,
	}
}

type hireBaseRequest struct {
	Query      string `json:"query"`
	DatePosted string `json:"date_posted"`
}

func (f *HireBaseFetcher) Fetch(ctx context.Context, cfg *models.SiteConfig) (*Payload, error) {
	queries := f.config.Queries
	if len(queries) == 0 {
		f.logger.Warn().Msg("HireBase fetcher has no queries configured")
		return nil, nil
	}
	if len(queries) > f.config.APILimit {
		f.logger.Warn().
			Int("queries", len(queries)).
			Int("api_limit", f.config.APILimit).
			Msg("Query set exceeds API limit, truncating")
		queries = queries[:f.config.APILimit]
	}

	daysAgo := f.config.PostedDaysAgo
	if daysAgo <= 0 {
		daysAgo = 1
	}
	datePosted := f.now().AddDate(0, 0, -daysAgo).Format("2006-01-02")

	var documents []string
	for _, query := range queries {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, nil
		}

		body, err := f.search(ctx, cfg.URL, hireBaseRequest{
			Query:      strings.TrimSpace(query + " " + f.config.QueryPostfix),
			DatePosted: datePosted,
		})
		if err != nil {
			f.logger.Error().
				Str("query", query).
				Err(err).
				Msg("HireBase query failed")
			continue
		}
		documents = append(documents, body)
	}

	if len(documents) == 0 {
		return nil, nil
	}
	return &Payload{Documents: documents}, nil
}

func (f *HireBaseFetcher) search(ctx context.Context, url string, request hireBaseRequest) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", f.config.APIKey)

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
