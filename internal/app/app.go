// Package app wires the application together. Construction is explicit and
// ordered; Start and Shutdown mirror each other.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/browser"
	"github.com/ternarybob/scout/internal/bus"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/parser"
	"github.com/ternarybob/scout/internal/pipeline"
	"github.com/ternarybob/scout/internal/robots"
	"github.com/ternarybob/scout/internal/scheduler"
	"github.com/ternarybob/scout/internal/sink"
	"github.com/ternarybob/scout/internal/tracker"
)

// App holds every long-lived component and the shared state between them.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Tracker     *tracker.Tracker
	RobotsCache *robots.Cache
	Advisor     *robots.Advisor
	Refresher   *robots.Refresher
	BrowserPool *browser.Pool
	Bus         *bus.Bus
	SinkClient  *sink.Client
	Gateway     *sink.Gateway
	Housekeeper *sink.Housekeeper
	Scheduler   *scheduler.Manager

	cleanerActive atomic.Bool
	needsBrowser  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs the full component graph. Nothing is running yet; Start
// launches the moving parts.
func New(cfg *common.Config, logger arbor.ILogger, sites []*models.SiteConfig, filters *models.FilterCatalog) *App {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	a.Tracker = tracker.New()
	a.RobotsCache = robots.NewCache()
	a.Advisor = robots.NewAdvisor(httpClient, a.RobotsCache)
	a.Refresher = robots.NewRefresher(a.Advisor, a.RobotsCache, cfg.Robots.RefreshHours)

	a.BrowserPool = browser.NewPool(cfg.Browser)
	for _, site := range sites {
		switch site.Kind() {
		case models.ParserTypeJS, models.ParserTypeSelDownload:
			a.needsBrowser = true
		}
	}

	a.Bus = bus.New()
	a.SinkClient = sink.NewClient(httpClient, cfg.Sink)
	a.Gateway = sink.NewGateway(a.SinkClient, a.Bus, &a.cleanerActive, cfg.Sink)
	a.Housekeeper = sink.NewHousekeeper(a.SinkClient, &a.cleanerActive, cfg.Sink)

	pl := pipeline.New(
		pipeline.NewChangeDetection(a.Tracker, nil, nil),
		pipeline.NewDateFilter(nil, nil),
		pipeline.NewFilters(filters, nil, nil),
		pipeline.NewPositionNormalization(nil, nil),
	)
	builder := parser.NewBuilder(httpClient, a.Advisor, a.BrowserPool, cfg.Browser, cfg.HireBase, pl)
	build := func(cfg *models.SiteConfig) (scheduler.Parser, error) {
		return builder.Build(cfg)
	}
	a.Scheduler = scheduler.NewManager(sites, build, a.Bus, a.Housekeeper, cfg.Scheduler)

	return a
}

// Start launches the gateway, housekeeping and robots schedules, the browser
// pool when any site needs one, and finally the site workers.
func (a *App) Start() error {
	a.ctx, a.cancel = context.WithCancel(context.Background())

	if a.needsBrowser {
		if err := a.BrowserPool.Init(); err != nil {
			return fmt.Errorf("failed to initialize browser pool: %w", err)
		}
	}

	a.Gateway.Start(a.ctx)
	if err := a.Housekeeper.Start(); err != nil {
		a.cancel()
		return fmt.Errorf("failed to start housekeeper: %w", err)
	}
	if err := a.Refresher.Start(); err != nil {
		a.cancel()
		return fmt.Errorf("failed to start robots refresher: %w", err)
	}

	if err := a.Scheduler.Start(a.ctx); err != nil {
		a.cancel()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	a.Logger.Info().Msg("Application started")
	return nil
}

// Shutdown stops intake first, then the schedules, then lets the gateway
// finish its in-flight write before the pool goes away.
func (a *App) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}

	a.Scheduler.Wait()
	a.Refresher.Stop()
	a.Housekeeper.Stop()
	a.Gateway.Wait()
	a.Bus.Close()
	a.BrowserPool.Shutdown()

	a.Logger.Info().Msg("Application stopped")
}
