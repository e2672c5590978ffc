// Package scheduler runs one long-lived worker per configured site. Workers
// parse on their site's cadence, publish to the bus, and cooperate on a quiet
// window during which housekeeping owns the sink's rate budget.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/bus"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// Parser is one site's parse cycle.
type Parser interface {
	Tag() string
	Parse(ctx context.Context, cfg *models.SiteConfig) ([]models.Row, error)
}

// BuildFunc constructs the parser for a site.
type BuildFunc func(cfg *models.SiteConfig) (Parser, error)

// DuplicatePurger is the housekeeping task workers trigger when the whole
// system goes idle.
type DuplicatePurger interface {
	PurgeDuplicates(ctx context.Context) error
}

// Manager owns the worker goroutines and the shared idle bookkeeping.
type Manager struct {
	sites    []*models.SiteConfig
	build    BuildFunc
	messages *bus.Bus
	purger   DuplicatePurger
	config   common.SchedulerConfig

	active      atomic.Int64
	quietWindow atomic.Bool

	// Overridable in tests; production uses the site's cadence.
	cadenceFor func(cfg *models.SiteConfig) time.Duration

	wg     sync.WaitGroup
	logger arbor.ILogger
}

func NewManager(
	sites []*models.SiteConfig,
	build BuildFunc,
	messages *bus.Bus,
	purger DuplicatePurger,
	config common.SchedulerConfig,
) *Manager {
	return &Manager{
		sites:      sites,
		build:      build,
		messages:   messages,
		purger:     purger,
		config:     config,
		cadenceFor: func(cfg *models.SiteConfig) time.Duration { return cfg.Cadence() },
		logger:     common.GetLogger(),
	}
}

// Start builds a parser per site and launches the workers. A site whose
// parser cannot be built fails startup as a whole.
func (m *Manager) Start(ctx context.Context) error {
	for _, cfg := range m.sites {
		p, err := m.build(cfg)
		if err != nil {
			return err
		}
		m.wg.Add(1)
		common.SafeGo(m.logger, "site-worker-"+cfg.SiteID, func() {
			defer m.wg.Done()
			m.runWorker(ctx, cfg, p)
		})
	}
	m.logger.Info().Int("workers", len(m.sites)).Msg("Scheduler started")
	return nil
}

// Wait blocks until every worker has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, cfg *models.SiteConfig, p Parser) {
	cadence := m.cadenceFor(cfg)
	quietPoll := time.Duration(m.config.QuietPollMinutes) * time.Minute
	lastEmpty := false

	for {
		if lastEmpty {
			if !sleepCtx(ctx, m.jittered(cadence)) {
				return
			}
			lastEmpty = false
		}
		for m.quietWindow.Load() {
			if !sleepCtx(ctx, quietPoll) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		cycleID := common.NewCycleID()
		rows, remaining, err := m.runCycle(ctx, cfg, p)

		if err != nil {
			m.logger.Error().Err(err).Str("site", cfg.SiteID).Str("cycle_id", cycleID).Msg("Parse cycle failed")
			lastEmpty = true
			continue
		}
		if rows == nil {
			m.logger.Debug().Str("site", cfg.SiteID).Str("cycle_id", cycleID).Msg("Parse cycle empty")
			lastEmpty = true
			continue
		}
		m.logger.Info().Str("site", cfg.SiteID).Str("cycle_id", cycleID).Int("rows", len(rows)).Msg("Parse cycle published rows")

		if remaining == 0 {
			m.idleHousekeeping(ctx)
		}
		if !sleepCtx(ctx, m.jittered(cadence)) {
			return
		}
	}
}

// runCycle runs one parse under the shared active counter. The decrement is
// deferred so a panicking parser cannot leave the counter raised and starve
// idle housekeeping forever; the panic is converted into a cycle error and the
// worker keeps cycling.
func (m *Manager) runCycle(ctx context.Context, cfg *models.SiteConfig, p Parser) (rows []models.Row, remaining int64, err error) {
	m.active.Add(1)
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("parse cycle panicked: %v", r)
		}
		remaining = m.active.Add(-1)
	}()

	rows, err = p.Parse(ctx, cfg)
	if err == nil && rows != nil {
		m.messages.Publish(p.Tag(), rows)
	}
	return rows, remaining, err
}

// idleHousekeeping waits for the bus to drain, then runs the duplicate purge
// under the quiet window so no worker writes while it deletes.
func (m *Manager) idleHousekeeping(ctx context.Context) {
	for !m.messages.Drained() {
		if !sleepCtx(ctx, m.config.DrainPoll) {
			return
		}
	}
	m.quietWindow.Store(true)
	defer m.quietWindow.Store(false)
	if err := m.purger.PurgeDuplicates(ctx); err != nil {
		m.logger.Error().Err(err).Msg("Duplicate purge failed")
	}
}

func (m *Manager) jittered(cadence time.Duration) time.Duration {
	if m.config.JitterMinutes <= 0 {
		return cadence
	}
	offset := time.Duration(rand.Intn(2*m.config.JitterMinutes+1)-m.config.JitterMinutes) * time.Minute
	return cadence + offset
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
