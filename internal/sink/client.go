// Package sink delivers records to the downstream document database and keeps
// it tidy. The gateway is the bus's single consumer; the housekeeper removes
// stale and duplicate entries on the side.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/ternarybob/scout/internal/common"
)

// ErrConflict marks an HTTP 409 from the sink; the record is re-published
// rather than dropped.
var ErrConflict = errors.New("sink reported a conflict")

// Page is one stored record, as much of it as housekeeping needs.
type Page struct {
	ID          string
	CreatedTime time.Time
	CompanyName string
	Position    string
}

// Client speaks the document database's HTTP API. Queries are paced to three
// per second regardless of caller.
type Client struct {
	httpClient   *http.Client
	config       common.SinkConfig
	queryLimiter *rate.Limiter
	logger       arbor.ILogger
}

func NewClient(httpClient *http.Client, config common.SinkConfig) *Client {
	return &Client{
		httpClient:   httpClient,
		config:       config,
		queryLimiter: rate.NewLimiter(rate.Every(time.Second/3), 1),
		logger:       common.GetLogger(),
	}
}

func (c *Client) headers(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.config.Version)
}

// CreatePage posts one record. Returns ErrConflict on 409 so the gateway can
// requeue the record.
func (c *Client) CreatePage(ctx context.Context, record *Record) error {
	body, err := json.Marshal(record.Body(c.config.DatabaseID))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.headers(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	default:
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create page failed with status %d: %s", resp.StatusCode, detail)
	}
}

// QueryAll pages through the data source and returns every record.
func (c *Client) QueryAll(ctx context.Context) ([]Page, error) {
	endpoint := fmt.Sprintf("%s/v1/data_sources/%s/query", c.config.BaseURL, c.config.DataSourceID)

	var pages []Page
	startCursor := ""
	for {
		if err := c.queryLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		payload := map[string]any{"page_size": 100}
		if startCursor != "" {
			payload["start_cursor"] = startCursor
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.headers(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("query failed with status %d: %s", resp.StatusCode, respBody)
		}

		parsed := gjson.ParseBytes(respBody)
		parsed.Get("results").ForEach(func(_, result gjson.Result) bool {
			pages = append(pages, parsePage(result))
			return true
		})

		if !parsed.Get("has_more").Bool() {
			return pages, nil
		}
		startCursor = parsed.Get("next_cursor").String()
	}
}

// DeletePage archives a record; the API has no hard delete.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	body := []byte(`{"archived": true}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.config.BaseURL+"/v1/pages/"+pageID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.headers(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete page failed with status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// ReadDescription reassembles a record's description from its child blocks.
// Only tests use this.
func (c *Client) ReadDescription(ctx context.Context, pageID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v1/blocks/"+pageID+"/children", nil)
	if err != nil {
		return "", err
	}
	c.headers(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("read children failed with status %d: %s", resp.StatusCode, body)
	}

	var chunks []string
	gjson.GetBytes(body, "results").ForEach(func(_, block gjson.Result) bool {
		block.Get("paragraph.rich_text").ForEach(func(_, text gjson.Result) bool {
			chunks = append(chunks, text.Get("text.content").String())
			return true
		})
		return true
	})

	description := ""
	for i, chunk := range chunks {
		if i > 0 {
			description += " "
		}
		description += chunk
	}
	return description, nil
}

// BatchDelete removes pages at three per second. Only tests use this.
func (c *Client) BatchDelete(ctx context.Context, pages []Page) error {
	limiter := rate.NewLimiter(rate.Every(time.Second/3), 1)
	for _, page := range pages {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := c.DeletePage(ctx, page.ID); err != nil {
			return err
		}
	}
	return nil
}

func parsePage(result gjson.Result) Page {
	created, _ := time.Parse(time.RFC3339, result.Get("properties.Created time.created_time").String())
	return Page{
		ID:          result.Get("id").String(),
		CreatedTime: created,
		CompanyName: result.Get("properties.Company Name.title.0.text.content").String(),
		Position:    result.Get("properties.Position.multi_select.0.name").String(),
	}
}
