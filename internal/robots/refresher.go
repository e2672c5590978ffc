package robots

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
)

// Refresher revalidates cached robots rules on a fixed schedule and evicts
// entries that are no longer fetchable. It yields between entries so a large
// cache cannot starve the workers, and stops within one entry on shutdown.
type Refresher struct {
	advisor  *Advisor
	cache    *Cache
	interval string
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	logger   arbor.ILogger
}

func NewRefresher(advisor *Advisor, cache *Cache, intervalHours int) *Refresher {
	if intervalHours <= 0 {
		intervalHours = 24
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		advisor:  advisor,
		cache:    cache,
		interval: fmt.Sprintf("@every %dh", intervalHours),
		ctx:      ctx,
		cancel:   cancel,
		logger:   common.GetLogger(),
	}
}

// Start schedules the periodic revalidation pass.
func (r *Refresher) Start() error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.interval, func() {
		r.refresh(r.ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule robots refresh: %w", err)
	}
	r.cron.Start()

	r.logger.Info().
		Str("interval", r.interval).
		Msg("Robots refresher started")
	return nil
}

// Stop cancels any in-flight pass and halts the schedule.
func (r *Refresher) Stop() {
	r.cancel()
	if r.cron != nil {
		stopCtx := r.cron.Stop()
		<-stopCtx.Done()
	}
	r.logger.Info().Msg("Robots refresher stopped")
}

func (r *Refresher) refresh(ctx context.Context) {
	urls := r.cache.URLs()

	var evicted []string
	for _, url := range urls {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rules, ok := r.cache.Get(url)
		if !ok {
			continue
		}
		if !r.advisor.Revalidate(ctx, url, rules.UserAgent) {
			evicted = append(evicted, url)
		}
	}

	for _, url := range evicted {
		r.cache.Remove(url)
	}

	if len(evicted) > 0 {
		r.logger.Info().
			Int("checked", len(urls)).
			Int("evicted", len(evicted)).
			Msg("Robots cache revalidated")
	}
}
