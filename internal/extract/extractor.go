// Package extract turns fetched payloads into column-oriented frames. Each
// extractor projects the site's selector mapping onto its source shape: CSV
// headers, CSS selectors, or JSON paths.
package extract

import (
	"context"

	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
)

// Extractor produces a frame from a fetcher's payload. Selectors map logical
// field names to source-specific keys.
type Extractor interface {
	Extract(ctx context.Context, payload *fetch.Payload, cfg *models.SiteConfig) (*models.Frame, error)
}
