package sink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/bus"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// Gateway is the bus's only consumer. It writes each batch to the sink with
// pacing that backs off while the housekeeper's cleaner is running, so the
// two never exceed the API's rate limit together.
type Gateway struct {
	client        *Client
	messages      *bus.Bus
	cleanerActive *atomic.Bool
	writeSpacing  time.Duration

	wg     sync.WaitGroup
	logger arbor.ILogger
}

func NewGateway(client *Client, messages *bus.Bus, cleanerActive *atomic.Bool, config common.SinkConfig) *Gateway {
	return &Gateway{
		client:        client,
		messages:      messages,
		cleanerActive: cleanerActive,
		writeSpacing:  config.WriteSpacing,
		logger:        common.GetLogger(),
	}
}

// Start launches the consumer loop. It runs until ctx is cancelled.
func (g *Gateway) Start(ctx context.Context) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.run(ctx)
	}()
}

// Wait blocks until the consumer loop has exited.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

func (g *Gateway) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-g.messages.Subscribe():
			g.deliver(ctx, msg)
		}
	}
}

func (g *Gateway) deliver(ctx context.Context, msg models.BusMessage) {
	start := time.Now()
	writes := 0

	for _, row := range msg.Batch {
		if ctx.Err() != nil {
			return
		}

		record := NewRecord(row)
		if !record.Valid() {
			g.logger.Warn().
				Str("parser", msg.ParserTag).
				Str("company", record.CompanyName).
				Str("position", record.Position).
				Msg("Dropping record with near-empty fields")
			continue
		}

		err := g.client.CreatePage(ctx, record)
		switch {
		case err == nil:
			g.logger.Debug().
				Str("company", record.CompanyName).
				Str("position", record.Position).
				Msg("Stored record")
		case errors.Is(err, ErrConflict):
			g.logger.Warn().
				Str("company", record.CompanyName).
				Str("position", record.Position).
				Msg("Conflict storing record, requeueing")
			g.messages.Publish(msg.ParserTag, []models.Row{row})
		case errors.Is(err, context.Canceled):
			return
		default:
			g.logger.Error().Err(err).
				Str("company", record.CompanyName).
				Str("position", record.Position).
				Msg("Failed to store record, dropping")
		}

		writes++
		if g.cleanerActive.Load() {
			// Cleaner deletes at one per second, so the batch slows to two
			// spaced writes, a full second of quiet, then the third.
			switch writes {
			case 1:
				sleepCtx(ctx, g.writeSpacing)
			case 2:
				sleepCtx(ctx, time.Second)
			}
		} else {
			sleepCtx(ctx, g.writeSpacing)
		}
	}

	// Hold each batch to at least a second of wall time, with a half second
	// floor even when the writes ran long.
	pause := time.Second - time.Since(start)
	if pause < 500*time.Millisecond {
		pause = 500 * time.Millisecond
	}
	sleepCtx(ctx, pause)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
