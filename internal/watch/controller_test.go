package watch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zephyr-g16/tradewatch/internal/persist"
	"github.com/zephyr-g16/tradewatch/internal/series"
)

type controllerFixture struct {
	sched  *fakeScheduler
	fetch  *fakeFetcher
	store  *series.Store
	state  *persist.State
	render *fakeRenderer
	ctrl   *Controller
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	state, err := persist.Open(filepath.Join(t.TempDir(), "state.json"), nil)
	if err != nil {
		t.Fatalf("persist.Open: %v", err)
	}

	fx := &controllerFixture{
		sched:  &fakeScheduler{},
		fetch:  newFakeFetcher(),
		store:  series.NewStore(0),
		state:  state,
		render: &fakeRenderer{},
	}
	fx.ctrl = NewController(fx.sched, fx.fetch, fx.store, fx.state, fx.render, time.Second, nil)
	fx.ctrl.SetOwner("user@example.com")
	return fx
}

func TestSwitchToPersistsAndStartsPolling(t *testing.T) {
	fx := newControllerFixture(t)
	fx.fetch.set("ETH/USD", 2500)

	fx.ctrl.SwitchTo("ETH/USD")

	if got := fx.ctrl.ActiveSymbol(); got != "ETH/USD" {
		t.Errorf("ActiveSymbol = %q, want ETH/USD", got)
	}
	if got := fx.state.RestoreWatch(); got != "ETH/USD" {
		t.Errorf("persisted watch = %q, want ETH/USD", got)
	}
	// The existing (empty) series is pushed before the first poll result.
	if len(fx.render.seriesCalls) != 1 || fx.render.seriesCalls[0] != "ETH/USD" {
		t.Errorf("RenderSeries calls = %v, want [ETH/USD]", fx.render.seriesCalls)
	}
	if live := fx.sched.live(); len(live) != 1 {
		t.Errorf("live schedules = %d, want 1", len(live))
	}
}

func TestSwitchToSameSymbolOnlyRefreshes(t *testing.T) {
	fx := newControllerFixture(t)
	fx.fetch.set("ETH/USD", 2500)

	fx.ctrl.SwitchTo("ETH/USD")
	schedules := len(fx.sched.schedules)
	fetches := len(fx.fetch.calls)

	fx.ctrl.SwitchTo("ETH/USD")

	if got := len(fx.sched.schedules); got != schedules {
		t.Errorf("re-select created a schedule: %d, want %d", got, schedules)
	}
	if got := len(fx.fetch.calls); got != fetches {
		t.Errorf("re-select issued a fetch: %d, want %d", got, fetches)
	}
	// But the displayed snapshot is refreshed.
	if got := len(fx.render.seriesCalls); got != 2 {
		t.Errorf("RenderSeries calls = %d, want 2", got)
	}
}

func TestSwitchBetweenSymbolsKeepsOneSchedule(t *testing.T) {
	fx := newControllerFixture(t)
	fx.fetch.set("ETH/USD", 2500)
	fx.fetch.set("BTC/USD", 60000)

	fx.ctrl.SwitchTo("ETH/USD")
	fx.ctrl.SwitchTo("BTC/USD")

	live := fx.sched.live()
	if len(live) != 1 {
		t.Fatalf("live schedules = %d, want 1", len(live))
	}
	if sym, _ := fx.ctrl.poller.Polling(); sym != "BTC/USD" {
		t.Errorf("polling %q, want BTC/USD", sym)
	}
	if got := fx.state.RestoreWatch(); got != "BTC/USD" {
		t.Errorf("persisted watch = %q, want BTC/USD", got)
	}
}

func TestRestoreOnLoadPrefersPersistedSymbol(t *testing.T) {
	fx := newControllerFixture(t)
	fx.fetch.set("ETH/USD", 2500)
	fx.fetch.set("BTC/USD", 60000)
	fx.state.RememberWatch("BTC/USD")

	got := fx.ctrl.RestoreOnLoad([]string{"ETH/USD", "BTC/USD"})

	if got != "BTC/USD" {
		t.Errorf("RestoreOnLoad = %q, want BTC/USD", got)
	}
	if fx.ctrl.ActiveSymbol() != "BTC/USD" {
		t.Errorf("ActiveSymbol = %q, want BTC/USD", fx.ctrl.ActiveSymbol())
	}
}

func TestRestoreOnLoadFallsBackToFirstAvailable(t *testing.T) {
	fx := newControllerFixture(t)
	fx.fetch.set("ETH/USD", 2500)
	fx.state.RememberWatch("BTC/USD")

	got := fx.ctrl.RestoreOnLoad([]string{"ETH/USD"})

	if got != "ETH/USD" {
		t.Errorf("RestoreOnLoad = %q, want ETH/USD", got)
	}
}

func TestRestoreOnLoadWithNothingAvailable(t *testing.T) {
	fx := newControllerFixture(t)
	fx.state.RememberWatch("BTC/USD")

	got := fx.ctrl.RestoreOnLoad(nil)

	if got != "" {
		t.Errorf("RestoreOnLoad = %q, want empty", got)
	}
	if fx.ctrl.ActiveSymbol() != "" {
		t.Errorf("ActiveSymbol = %q, want empty", fx.ctrl.ActiveSymbol())
	}
	if live := fx.sched.live(); len(live) != 0 {
		t.Errorf("live schedules = %d, want 0", len(live))
	}
}

func TestRestoreOnLoadEmptyListStopsRunningPoll(t *testing.T) {
	fx := newControllerFixture(t)
	fx.fetch.set("ETH/USD", 2500)
	fx.ctrl.SwitchTo("ETH/USD")
	if live := fx.sched.live(); len(live) != 1 {
		t.Fatalf("live schedules = %d, want 1", len(live))
	}

	// The last trader was stopped and the refreshed list came back empty.
	got := fx.ctrl.RestoreOnLoad(nil)

	if got != "" {
		t.Errorf("RestoreOnLoad = %q, want empty", got)
	}
	if live := fx.sched.live(); len(live) != 0 {
		t.Errorf("live schedules = %d, want 0 after the list emptied", len(live))
	}
	if fx.ctrl.ActiveSymbol() != "" {
		t.Errorf("ActiveSymbol = %q, want empty", fx.ctrl.ActiveSymbol())
	}
	// The persisted symbol survives for the next session that has it.
	if got := fx.state.RestoreWatch(); got != "ETH/USD" {
		t.Errorf("persisted watch = %q, want ETH/USD", got)
	}
}

func TestTeardownStopsPollingButKeepsSeries(t *testing.T) {
	fx := newControllerFixture(t)
	fx.fetch.set("ETH/USD", 2500)
	fx.ctrl.SwitchTo("ETH/USD")

	fx.ctrl.Teardown()

	if live := fx.sched.live(); len(live) != 0 {
		t.Errorf("live schedules after Teardown = %d, want 0", len(live))
	}
	if fx.ctrl.ActiveSymbol() != "" {
		t.Errorf("ActiveSymbol = %q, want empty", fx.ctrl.ActiveSymbol())
	}
	if fx.ctrl.Owner() != "" {
		t.Errorf("Owner = %q, want empty", fx.ctrl.Owner())
	}
	// Series cache survives for the rest of the session.
	if got := fx.store.Len("ETH/USD"); got != 1 {
		t.Errorf("series length after Teardown = %d, want 1", got)
	}
}
