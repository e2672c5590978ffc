// Package fetch acquires raw content for the extractors. Every fetcher shares
// one contract: a nil payload with a nil error means "nothing this cycle", and
// is never treated as a failure upstream.
package fetch

import (
	"context"

	"github.com/ternarybob/scout/internal/browser"
	"github.com/ternarybob/scout/internal/models"
)

// Payload carries whichever content shape a fetcher produces. Exactly one of
// the fields is populated.
type Payload struct {
	HTML      string            // rendered or raw page markup
	CSV       string            // downloaded CSV text
	Instance  *browser.Instance // live DOM held for the extractor, must be released
	Documents []string          // raw JSON response bodies, one per query
}

// Fetcher retrieves content for one site.
type Fetcher interface {
	Fetch(ctx context.Context, cfg *models.SiteConfig) (*Payload, error)
}
