package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// Pipeline executes processors in order, skipping steps that do not apply to
// the parser tag and stopping as soon as the frame runs empty.
type Pipeline struct {
	processors []Processor
	logger     arbor.ILogger
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{
		processors: processors,
		logger:     common.GetLogger(),
	}
}

func (p *Pipeline) Execute(ctx context.Context, frame *models.Frame, cfg *models.SiteConfig, parserTag string) (*models.Frame, error) {
	for _, proc := range p.processors {
		if !proc.AppliesTo(parserTag) {
			continue
		}

		var err error
		frame, err = proc.Process(ctx, frame, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", proc.Name(), err)
		}

		if frame.IsEmpty() {
			p.logger.Debug().
				Str("url", cfg.URL).
				Str("processor", proc.Name()).
				Msg("Frame empty, short-circuiting pipeline")
			break
		}
	}
	return frame, nil
}
