package tui

import (
	"context"

	"github.com/zephyr-g16/tradewatch/internal/model"
	"github.com/zephyr-g16/tradewatch/internal/series"
)

// TradingAPI is the slice of the api client the TUI depends on. Tests
// substitute fakes.
type TradingAPI interface {
	SendLoginCode(ctx context.Context, email string) error
	CheckLoginCode(ctx context.Context, email, code string) (bool, error)
	Symbols(ctx context.Context) ([]string, error)
	ListTraders(ctx context.Context, owner string) ([]string, error)
	StartTrader(ctx context.Context, owner, symbol, strategy, fundAmnt string) (map[string]interface{}, error)
	StopTrader(ctx context.Context, owner, symbol string) (map[string]interface{}, error)
	AddCoin(ctx context.Context, owner, coin string) (map[string]interface{}, error)
}

// FrameMsg carries one processed poll result for the active symbol.
type FrameMsg struct {
	Symbol string
	Snap   series.Snapshot
	Status model.TraderStatus
	Entry  model.Level
	Sell   model.Level
}

// SeriesMsg swaps the plotted history without touching status fields,
// sent when the watch switches symbols.
type SeriesMsg struct {
	Symbol string
	Snap   series.Snapshot
}

// LogMsg appends one line to the dashboard log pane.
type LogMsg struct {
	Line string
}

// tradersLoadedMsg is the result of a /traders/list refresh.
type tradersLoadedMsg struct {
	traders []string
	err     error
}

// symbolsLoadedMsg is the result of a /symbols fetch.
type symbolsLoadedMsg struct {
	symbols []string
	err     error
}

// codeSentMsg reports the outcome of /login/send.
type codeSentMsg struct {
	err error
}

// codeCheckedMsg reports the outcome of /login/check.
type codeCheckedMsg struct {
	ok  bool
	err error
}

// actionDoneMsg reports a user-initiated trader action (start/stop/add).
type actionDoneMsg struct {
	summary string
	err     error
	reload  bool // re-fetch the trader list afterwards
}
