package pipeline

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// Comma variants that break multi-select options downstream.
var commaReplacer = strings.NewReplacer(",", " -", "，", " -", "、", " -")

// PositionNormalization rewrites comma variants in the position column so the
// sink does not split one title into several options. A frame without the
// column passes through untouched.
type PositionNormalization struct {
	applicability
	logger arbor.ILogger
}

func NewPositionNormalization(include, exclude []string) *PositionNormalization {
	return &PositionNormalization{
		applicability: applicability{include: include, exclude: exclude},
		logger:        common.GetLogger(),
	}
}

func (p *PositionNormalization) Name() string { return "position_normalization" }

func (p *PositionNormalization) Process(ctx context.Context, frame *models.Frame, cfg *models.SiteConfig) (*models.Frame, error) {
	if frame.IsEmpty() {
		return frame, nil
	}

	if !frame.HasColumn(models.FieldPosition) {
		p.logger.Debug().
			Str("url", cfg.URL).
			Msg("Position column absent, skipping normalization")
		return frame, nil
	}

	values := frame.Column(models.FieldPosition)
	normalized := make([]string, len(values))
	for i, value := range values {
		normalized[i] = commaReplacer.Replace(value)
	}
	if err := frame.SetColumn(models.FieldPosition, normalized); err != nil {
		return nil, err
	}
	return frame, nil
}
