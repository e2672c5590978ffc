package sink

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/scout/internal/common"
)

// Housekeeper ages out old records on a fixed schedule and removes duplicate
// listings on demand. While a cleaning pass runs it raises cleanerActive so
// the gateway slows its writes.
type Housekeeper struct {
	client        *Client
	cleanerActive *atomic.Bool
	cleanupAge    time.Duration

	scheduler *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	logger    arbor.ILogger
	now       func() time.Time
}

func NewHousekeeper(client *Client, cleanerActive *atomic.Bool, config common.SinkConfig) *Housekeeper {
	return &Housekeeper{
		client:        client,
		cleanerActive: cleanerActive,
		cleanupAge:    config.CleanupAge,
		logger:        common.GetLogger(),
		now:           time.Now,
	}
}

// Start schedules the periodic cleaning pass. The first pass runs one full
// interval after startup, not immediately.
func (h *Housekeeper) Start() error {
	h.ctx, h.cancel = context.WithCancel(context.Background())
	h.scheduler = cron.New()
	spec := "@every " + h.cleanupAge.String()
	if _, err := h.scheduler.AddFunc(spec, func() { h.deleteOldEntries(h.ctx) }); err != nil {
		return fmt.Errorf("failed to schedule cleaning pass: %w", err)
	}
	h.scheduler.Start()
	h.logger.Info().Str("interval", spec).Msg("Housekeeper started")
	return nil
}

// Stop cancels any in-flight pass and halts the schedule.
func (h *Housekeeper) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.scheduler != nil {
		<-h.scheduler.Stop().Done()
	}
}

// deleteOldEntries removes every record older than the cleanup age, pacing
// deletes to one per second.
func (h *Housekeeper) deleteOldEntries(ctx context.Context) {
	h.cleanerActive.Store(true)
	defer h.cleanerActive.Store(false)

	pages, err := h.client.QueryAll(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Cleaning pass aborted, query failed")
		return
	}

	cutoff := h.now().Add(-h.cleanupAge)
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	removed := 0
	for _, page := range pages {
		if page.CreatedTime.IsZero() || !page.CreatedTime.Before(cutoff) {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if err := h.client.DeletePage(ctx, page.ID); err != nil {
			h.logger.Error().Err(err).Str("page_id", page.ID).Msg("Failed to delete old record")
			continue
		}
		removed++
	}

	h.logger.Info().Int("removed", removed).Int("scanned", len(pages)).Msg("Cleaning pass finished")
}

// PurgeDuplicates removes every record that repeats an earlier record's
// company and position, keeping the first occurrence. Deletes are paced to
// two per second. A failed query aborts the pass.
func (h *Housekeeper) PurgeDuplicates(ctx context.Context) error {
	pages, err := h.client.QueryAll(ctx)
	if err != nil {
		return fmt.Errorf("duplicate purge aborted: %w", err)
	}

	type listing struct {
		company  string
		position string
	}
	seen := make(map[listing]bool, len(pages))
	limiter := rate.NewLimiter(rate.Every(500*time.Millisecond), 1)
	removed := 0

	for _, page := range pages {
		key := listing{company: page.CompanyName, position: page.Position}
		if !seen[key] {
			seen[key] = true
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := h.client.DeletePage(ctx, page.ID); err != nil {
			h.logger.Error().Err(err).Str("page_id", page.ID).Msg("Failed to delete duplicate")
			continue
		}
		removed++
	}

	h.logger.Info().Int("removed", removed).Int("scanned", len(pages)).Msg("Duplicate purge finished")
	return nil
}
