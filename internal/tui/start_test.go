package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zephyr-g16/tradewatch/internal/series"
	"github.com/zephyr-g16/tradewatch/internal/watch"
)

func startFixture(t *testing.T, api *fakeAPI) (*StartModel, *watch.Controller) {
	t.Helper()
	state := testState(t)
	render := NewTeaRenderer()
	ctrl := watch.NewController(noopScheduler{}, statusFetcher{api}, series.NewStore(0), state, render, time.Second, nil)
	ctrl.SetOwner("user@example.com")
	return NewStartModel(api, ctrl), ctrl
}

func TestStartEscapeReturnsToDashboard(t *testing.T) {
	api := &fakeAPI{symbols: []string{"XBT/USD"}}
	m, _ := startFixture(t, api)
	m.Update(runCmd(t, m.Init()))

	_, nav := m.Update(tea.KeyMsg{Type: tea.KeyEscape})

	if nav == nil || nav.PageID != PageDashboard {
		t.Fatalf("nav = %v, want dashboard", nav)
	}
}

func TestStartLaunchesSelectedSymbol(t *testing.T) {
	api := &fakeAPI{symbols: []string{"ETH/USD", "XBT/USD"}}
	m, _ := startFixture(t, api)
	m.Update(runCmd(t, m.Init()))

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	cmd, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := runCmd(t, cmd)

	done, ok := msg.(actionDoneMsg)
	if !ok || !done.reload {
		t.Fatalf("msg = %#v, want actionDoneMsg with reload", msg)
	}
	if len(api.started) != 1 || api.started[0] != [4]string{"user@example.com", "XBT/USD", "base", "100"} {
		t.Errorf("started = %v", api.started)
	}

	_, nav := m.Update(done)
	if nav == nil || nav.PageID != PageDashboard {
		t.Fatalf("nav = %v, want dashboard after a launch", nav)
	}
	if nav.Params != "started XBT/USD" {
		t.Errorf("params = %v, want the launch notice", nav.Params)
	}
}

func TestStartAddCoinRefreshesSymbols(t *testing.T) {
	api := &fakeAPI{symbols: []string{"XBT/USD"}}
	m, _ := startFixture(t, api)
	m.Update(runCmd(t, m.Init()))

	m.setFocus(focusAddCoin)
	m.coinInput.SetValue("sol/usd")
	cmd, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := runCmd(t, cmd)

	done, ok := msg.(actionDoneMsg)
	if !ok || done.reload {
		t.Fatalf("msg = %#v, want actionDoneMsg without reload", msg)
	}
	if len(api.added) != 1 || api.added[0] != [2]string{"user@example.com", "sol/usd"} {
		t.Errorf("added = %v", api.added)
	}

	cmd, nav := m.Update(done)
	if nav != nil {
		t.Fatal("add coin should stay on the start page")
	}
	if cmd == nil {
		t.Error("add coin should refresh the symbol list")
	}
	if m.coinInput.Value() != "" {
		t.Error("add coin input should be cleared after success")
	}
}
