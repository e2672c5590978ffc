// Package pipeline runs the ordered row-level transforms between extraction
// and emission: change detection, date filtering, catalog filters and
// position normalization.
package pipeline

import (
	"context"
	"errors"

	"github.com/ternarybob/scout/internal/models"
)

// ErrMissingColumn signals that a transform's required column is absent from
// the frame. A site whose extraction misses the date column is misconfigured,
// not merely empty.
var ErrMissingColumn = errors.New("required column not found in frame")

// Processor is one transform step. AppliesTo lets a step opt out for
// particular parser tags.
type Processor interface {
	Name() string
	AppliesTo(parserTag string) bool
	Process(ctx context.Context, frame *models.Frame, cfg *models.SiteConfig) (*models.Frame, error)
}

// applicability implements include/exclude matching over parser tags. The
// include list is a whitelist and wins over the blacklist; when it is empty
// everything passes unless excluded.
type applicability struct {
	include []string
	exclude []string
}

func (a applicability) AppliesTo(parserTag string) bool {
	if len(a.include) > 0 {
		for _, tag := range a.include {
			if tag == parserTag {
				return true
			}
		}
		return false
	}
	for _, tag := range a.exclude {
		if tag == parserTag {
			return false
		}
	}
	return true
}
