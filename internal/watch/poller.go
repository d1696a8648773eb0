// Package watch is the live-watch synchronization core: it keeps exactly
// one symbol under a recurring status poll, folds poll results into the
// series store, and feeds the chart renderer. Switching symbols never
// leaks timers or lets stale responses overwrite the visible chart.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/zephyr-g16/tradewatch/internal/model"
	"github.com/zephyr-g16/tradewatch/internal/series"
)

// StatusFetcher fetches one status snapshot for a symbol. Implemented by
// the api client; tests substitute fakes.
type StatusFetcher interface {
	TraderStatus(ctx context.Context, owner, symbol string) (model.TraderStatus, error)
}

// Renderer is the chart/status display collaborator. RenderFrame carries
// a full poll result; RenderSeries only swaps the plotted history, used
// when switching symbols so the view never shows another symbol's data.
type Renderer interface {
	RenderFrame(symbol string, snap series.Snapshot, status model.TraderStatus, entry, sell model.Level)
	RenderSeries(symbol string, snap series.Snapshot)
}

const fetchTimeout = 5 * time.Second

// StatusPoller drives the recurring fetch-and-render loop for one symbol
// at a time. Two states: Idle (no schedule) and Polling(symbol, cancel).
type StatusPoller struct {
	sched    Scheduler
	fetch    StatusFetcher
	store    *series.Store
	render   Renderer
	interval time.Duration

	// owner returns the authenticated identity, active the symbol that
	// is currently on screen. Both are read at tick-processing time.
	owner  func() string
	active func() string

	logf func(format string, args ...interface{})
	now  func() time.Time

	mu     sync.Mutex
	symbol string
	cancel CancelFunc
}

// NewStatusPoller wires a poller. logf may be nil; interval <= 0 falls
// back to model.DefaultPollInterval.
func NewStatusPoller(sched Scheduler, fetch StatusFetcher, store *series.Store, render Renderer, interval time.Duration, owner, active func() string, logf func(string, ...interface{})) *StatusPoller {
	if interval <= 0 {
		interval = model.DefaultPollInterval
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &StatusPoller{
		sched:    sched,
		fetch:    fetch,
		store:    store,
		render:   render,
		interval: interval,
		owner:    owner,
		active:   active,
		logf:     logf,
		now:      time.Now,
	}
}

// Start cancels any running schedule, fetches symbol once immediately so
// the user sees fresh data without an initial delay, then schedules the
// recurring poll. The scheduled ticks stay bound to this symbol even if
// the active symbol changes later.
func (p *StatusPoller) Start(symbol string) {
	if symbol == "" {
		return
	}

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.symbol = symbol
	p.mu.Unlock()

	p.pollOnce(symbol)

	cancel := p.sched.Every(p.interval, func() {
		p.pollOnce(symbol)
	})

	p.mu.Lock()
	// A Start for another symbol may have raced in between; if so the
	// newer schedule wins and this one is cancelled on the spot.
	if p.symbol != symbol {
		p.mu.Unlock()
		cancel()
		return
	}
	p.cancel = cancel
	p.mu.Unlock()
}

// Stop cancels the recurring schedule. No-op when already Idle.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.symbol = ""
}

// Polling reports the scheduler state: the symbol under poll and whether
// a schedule is live.
func (p *StatusPoller) Polling() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.symbol, p.cancel != nil
}

// pollOnce fetches status for symbol and folds the result in. A failed
// fetch is logged and the schedule continues; the next tick retries.
// The response always updates symbol's own series, but refreshes the
// visible chart only if symbol is still the active one when the
// response is processed.
func (p *StatusPoller) pollOnce(symbol string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	status, err := p.fetch.TraderStatus(ctx, p.owner(), symbol)
	if err != nil {
		p.logf("status err -> %v", err)
		return
	}

	if model.Finite(status.LastPrice) {
		label := p.now().Format("15:04:05")
		p.store.Append(symbol, label, *status.LastPrice)
	}

	if p.active() != symbol {
		return
	}
	p.render.RenderFrame(
		symbol,
		p.store.Snapshot(symbol),
		status,
		model.LevelFrom(status.EntryPrice),
		model.LevelFrom(status.SellLimit),
	)
}
