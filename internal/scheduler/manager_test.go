package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scout/internal/bus"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

type stubParser struct {
	calls   atomic.Int64
	rows    []models.Row
	onlyOne bool
	err     error
}

func (p *stubParser) Tag() string { return "STATIC" }

func (p *stubParser) Parse(ctx context.Context, cfg *models.SiteConfig) ([]models.Row, error) {
	n := p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	if p.onlyOne && n > 1 {
		return nil, nil
	}
	return p.rows, nil
}

// panickyParser blows up on its first cycle, publishes once on the second,
// then goes quiet.
type panickyParser struct {
	calls atomic.Int64
	rows  []models.Row
}

func (p *panickyParser) Tag() string { return "STATIC" }

func (p *panickyParser) Parse(ctx context.Context, cfg *models.SiteConfig) ([]models.Row, error) {
	switch p.calls.Add(1) {
	case 1:
		panic("selector exploded")
	case 2:
		return p.rows, nil
	default:
		return nil, nil
	}
}

type stubPurger struct {
	calls atomic.Int64
}

func (p *stubPurger) PurgeDuplicates(ctx context.Context) error {
	p.calls.Add(1)
	return nil
}

func testConfig() common.SchedulerConfig {
	return common.SchedulerConfig{
		JitterMinutes:    0,
		QuietPollMinutes: 0,
		DrainPoll:        10 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, p Parser, purger DuplicatePurger) (*Manager, context.CancelFunc) {
	t.Helper()
	messages := bus.New()
	t.Cleanup(messages.Close)
	go func() {
		for range messages.Subscribe() {
		}
	}()

	sites := []*models.SiteConfig{{SiteID: "site_a", ParserType: "STATIC"}}
	build := func(cfg *models.SiteConfig) (Parser, error) { return p, nil }
	m := NewManager(sites, build, messages, purger, testConfig())
	m.cadenceFor = func(cfg *models.SiteConfig) time.Duration { return 10 * time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() {
		cancel()
		m.Wait()
	})
	return m, cancel
}

func TestWorkerPublishesAndPurgesWhenIdle(t *testing.T) {
	p := &stubParser{
		rows:    []models.Row{models.NewRow(map[string]string{models.FieldPosition: "Engineer"})},
		onlyOne: true,
	}
	purger := &stubPurger{}
	newTestManager(t, p, purger)

	require.Eventually(t, func() bool { return purger.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPanickedCycleReleasesActiveCount(t *testing.T) {
	p := &panickyParser{
		rows: []models.Row{models.NewRow(map[string]string{models.FieldPosition: "Engineer"})},
	}
	purger := &stubPurger{}
	m, _ := newTestManager(t, p, purger)

	require.Eventually(t, func() bool { return purger.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, p.calls.Load(), int64(2))
	assert.Zero(t, m.active.Load())
}

func TestEmptyCycleSkipsPurge(t *testing.T) {
	p := &stubParser{rows: nil}
	purger := &stubPurger{}
	newTestManager(t, p, purger)

	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, purger.calls.Load())
}

func TestParseErrorKeepsWorkerRunning(t *testing.T) {
	p := &stubParser{err: errors.New("fetch failed")}
	purger := &stubPurger{}
	newTestManager(t, p, purger)

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, purger.calls.Load())
}

func TestCancelStopsWorkers(t *testing.T) {
	p := &stubParser{rows: nil}
	m, cancel := newTestManager(t, p, &stubPurger{})

	cancel()

	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop after cancel")
	}
}

func TestBuildFailureFailsStart(t *testing.T) {
	messages := bus.New()
	defer messages.Close()

	sites := []*models.SiteConfig{{SiteID: "site_a", ParserType: "BOGUS"}}
	build := func(cfg *models.SiteConfig) (Parser, error) { return nil, errors.New("unknown parser type") }
	m := NewManager(sites, build, messages, &stubPurger{}, testConfig())

	err := m.Start(context.Background())
	assert.Error(t, err)
}
