package pipeline

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/tracker"
)

// ChangeDetection keeps only rows that are new since the last cycle. Sources
// list newest entries first, so the previous top-row fingerprint marks the
// boundary: everything strictly above it is new. The tracker is always
// advanced to the current top row, even when the rest of the pipeline later
// empties the frame.
type ChangeDetection struct {
	applicability
	tracker *tracker.Tracker
	logger  arbor.ILogger
}

func NewChangeDetection(tr *tracker.Tracker, include, exclude []string) *ChangeDetection {
	return &ChangeDetection{
		applicability: applicability{include: include, exclude: exclude},
		tracker:       tr,
		logger:        common.GetLogger(),
	}
}

func (p *ChangeDetection) Name() string { return "change_detection" }

func (p *ChangeDetection) Process(ctx context.Context, frame *models.Frame, cfg *models.SiteConfig) (*models.Frame, error) {
	if frame.IsEmpty() {
		return frame, nil
	}

	key := cfg.URL
	fpNew := frame.Row(0).Fingerprint()

	if !p.tracker.Has(key) {
		p.tracker.Track(key, fpNew)
		p.logger.Debug().
			Str("url", cfg.URL).
			Int("rows", frame.Len()).
			Msg("First sighting, keeping full frame")
		return frame, nil
	}

	fpPrev := p.tracker.Get(key)
	p.tracker.Track(key, fpNew)

	if fpPrev == fpNew {
		p.logger.Debug().
			Str("url", cfg.URL).
			Msg("Top row unchanged, nothing new")
		return models.EmptyLike(frame), nil
	}

	// Scan for the previous top row; rows above it are new
	for i := 0; i < frame.Len(); i++ {
		if frame.Row(i).Fingerprint() == fpPrev {
			return frame.Head(i), nil
		}
	}

	// Turnover exceeded the visible window
	p.logger.Debug().
		Str("url", cfg.URL).
		Int("rows", frame.Len()).
		Msg("Previous top row gone, keeping full frame")
	return frame, nil
}
