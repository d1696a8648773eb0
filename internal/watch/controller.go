package watch

import (
	"slices"
	"sync"
	"time"

	"github.com/zephyr-g16/tradewatch/internal/persist"
	"github.com/zephyr-g16/tradewatch/internal/series"
)

// Controller orchestrates symbol selection: it owns the active-symbol
// state, persists the watch across restarts, and keeps the invariant
// that at most one poll schedule is ever live.
type Controller struct {
	store  *series.Store
	state  *persist.State
	render Renderer
	poller *StatusPoller

	mu     sync.Mutex
	owner  string
	active string
}

// NewController builds the controller and its poller. sched and fetch
// are injected so tests can run without timers or a network.
func NewController(sched Scheduler, fetch StatusFetcher, store *series.Store, state *persist.State, render Renderer, interval time.Duration, logf func(string, ...interface{})) *Controller {
	c := &Controller{
		store:  store,
		state:  state,
		render: render,
	}
	c.poller = NewStatusPoller(sched, fetch, store, render, interval, c.Owner, c.ActiveSymbol, logf)
	return c
}

// SetOwner records the authenticated identity used on every poll.
func (c *Controller) SetOwner(owner string) {
	c.mu.Lock()
	c.owner = owner
	c.mu.Unlock()
}

// Owner returns the authenticated identity, or "" when logged out.
func (c *Controller) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// ActiveSymbol returns the symbol currently being watched, or "".
func (c *Controller) ActiveSymbol() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SwitchTo makes symbol the watched one: persist it, show its existing
// history immediately so the chart never lingers on another symbol, and
// restart the poll. Re-selecting the active symbol only refreshes the
// displayed snapshot; the running schedule is left alone.
func (c *Controller) SwitchTo(symbol string) {
	if symbol == "" {
		return
	}

	c.mu.Lock()
	already := c.active == symbol
	if !already {
		c.active = symbol
	}
	c.mu.Unlock()

	if already {
		c.render.RenderSeries(symbol, c.store.Snapshot(symbol))
		return
	}

	c.state.RememberWatch(symbol)
	c.render.RenderSeries(symbol, c.store.Snapshot(symbol))
	c.poller.Start(symbol)
}

// RestoreOnLoad picks the symbol to watch after startup or a trader-list
// refresh: the persisted symbol if it still has a running trader, else
// the first available one, else nothing. The empty case also stops any
// running poll, so stopping the last trader does not leave a schedule
// failing against it. It returns the symbol it settled on.
func (c *Controller) RestoreOnLoad(availableSymbols []string) string {
	symbol := c.state.RestoreWatch()
	if symbol == "" || !slices.Contains(availableSymbols, symbol) {
		if len(availableSymbols) == 0 {
			c.poller.Stop()
			c.mu.Lock()
			c.active = ""
			c.mu.Unlock()
			return ""
		}
		symbol = availableSymbols[0]
	}
	c.SwitchTo(symbol)
	return symbol
}

// Teardown stops polling and clears the watch, used on logout. Cached
// series stay in memory in case the user logs back in this session.
func (c *Controller) Teardown() {
	c.poller.Stop()

	c.mu.Lock()
	c.active = ""
	c.owner = ""
	c.mu.Unlock()
}

// Poller exposes the underlying poller, mainly for state inspection.
func (c *Controller) Poller() *StatusPoller {
	return c.poller
}
