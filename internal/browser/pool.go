// Package browser manages a bounded pool of headless Chrome instances shared
// by the browser-backed fetchers. Instances are checked out exclusively; a
// fetcher that needs the live DOM across fetch and extract simply holds the
// instance until extraction releases it.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
)

// Instance is one live browser with its own profile and download directory.
type Instance struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	downloadDir string
	index       int
}

// Context returns the chromedp context for running tasks on this instance.
func (i *Instance) Context() context.Context { return i.ctx }

// DownloadDir returns the directory Chrome writes downloads into for this
// instance.
func (i *Instance) DownloadDir() string { return i.downloadDir }

// Pool owns a fixed set of browser instances. Acquire blocks until an
// instance is free or the context is cancelled.
type Pool struct {
	mu          sync.Mutex
	config      common.BrowserConfig
	free        chan *Instance
	all         []*Instance
	logger      arbor.ILogger
	initialized bool
}

func NewPool(config common.BrowserConfig) *Pool {
	return &Pool{
		config: config,
		logger: common.GetLogger(),
	}
}

// Init launches the configured number of browser instances. Fails only when
// no instance at all could be started.
func (p *Pool) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return fmt.Errorf("browser pool already initialized")
	}

	size := p.config.PoolSize
	if size <= 0 {
		size = 2
	}

	p.logger.Info().
		Int("pool_size", size).
		Str("download_dir", p.config.DownloadDir).
		Msg("Initializing browser pool")

	p.free = make(chan *Instance, size)

	var lastErr error
	for i := 0; i < size; i++ {
		inst, err := p.createInstance(i)
		if err != nil {
			lastErr = err
			p.logger.Warn().
				Err(err).
				Int("browser_index", i).
				Msg("Failed to create browser instance")
			continue
		}
		p.all = append(p.all, inst)
		p.free <- inst
	}

	if len(p.all) == 0 {
		return fmt.Errorf("failed to create any browser instances: %w", lastErr)
	}

	p.initialized = true
	p.logger.Info().
		Int("browsers_created", len(p.all)).
		Msg("Browser pool initialized")
	return nil
}

func (p *Pool) createInstance(index int) (*Instance, error) {
	startTime := time.Now()

	downloadDir := filepath.Join(p.config.DownloadDir, fmt.Sprintf("browser-%d", index))
	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(common.RandomUserAgent()),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Startup probe so a broken Chrome install fails fast
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser instance failed startup test: %w", err)
	}

	p.logger.Debug().
		Int("browser_index", index).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser instance created")

	return &Instance{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		downloadDir: downloadDir,
		index:       index,
	}, nil
}

// Acquire checks out an instance, blocking until one is free.
func (p *Pool) Acquire(ctx context.Context) (*Instance, error) {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return nil, fmt.Errorf("browser pool not initialized")
	}
	free := p.free
	p.mu.Unlock()

	select {
	case inst := <-free:
		p.logger.Debug().
			Int("browser_index", inst.index).
			Msg("Browser instance acquired")
		return inst, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an instance to the pool, clearing out any leftover
// downloads first.
func (p *Pool) Release(inst *Instance) {
	if inst == nil {
		return
	}
	clearDir(inst.downloadDir)

	p.mu.Lock()
	initialized := p.initialized
	free := p.free
	p.mu.Unlock()

	if !initialized {
		return
	}
	free <- inst
	p.logger.Debug().
		Int("browser_index", inst.index).
		Msg("Browser instance released")
}

// Shutdown cancels every instance. Callers must not hold instances across
// shutdown.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}

	for _, inst := range p.all {
		inst.cancel()
		inst.allocCancel()
		clearDir(inst.downloadDir)
	}

	p.logger.Info().
		Int("browsers_shutdown", len(p.all)).
		Msg("Browser pool shut down")

	p.all = nil
	p.free = nil
	p.initialized = false
}

func clearDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		os.RemoveAll(filepath.Join(dir, entry.Name()))
	}
}
