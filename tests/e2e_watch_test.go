package tests

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zephyr-g16/tradewatch/internal/api"
	"github.com/zephyr-g16/tradewatch/internal/model"
	"github.com/zephyr-g16/tradewatch/internal/persist"
	"github.com/zephyr-g16/tradewatch/internal/series"
	"github.com/zephyr-g16/tradewatch/internal/stubapi"
	"github.com/zephyr-g16/tradewatch/internal/watch"
)

// scriptedPrices returns prices from a queue, repeating the last one
// once the queue drains, so stage transitions happen exactly on cue.
type scriptedPrices struct {
	mu    sync.Mutex
	queue map[string][]float64
	last  map[string]float64
}

func newScriptedPrices() *scriptedPrices {
	return &scriptedPrices{
		queue: make(map[string][]float64),
		last:  make(map[string]float64),
	}
}

func (s *scriptedPrices) push(symbol string, prices ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[symbol] = append(s.queue[symbol], prices...)
}

func (s *scriptedPrices) LastPrice(symbol string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q := s.queue[symbol]; len(q) > 0 {
		s.last[symbol] = q[0]
		s.queue[symbol] = q[1:]
	}
	p, ok := s.last[symbol]
	return p, ok
}

// manualScheduler hands tick control to the test.
type manualScheduler struct {
	mu  sync.Mutex
	fns []func()
}

func (s *manualScheduler) Every(_ time.Duration, fn func()) watch.CancelFunc {
	s.mu.Lock()
	idx := len(s.fns)
	s.fns = append(s.fns, fn)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.fns[idx] = nil
		s.mu.Unlock()
	}
}

func (s *manualScheduler) tick() {
	s.mu.Lock()
	fns := append(([]func())(nil), s.fns...)
	s.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

type renderedFrame struct {
	symbol string
	snap   series.Snapshot
	status model.TraderStatus
	entry  model.Level
	sell   model.Level
}

type recordingRenderer struct {
	mu     sync.Mutex
	frames []renderedFrame
}

func (r *recordingRenderer) RenderFrame(symbol string, snap series.Snapshot, status model.TraderStatus, entry, sell model.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, renderedFrame{symbol, snap, status, entry, sell})
}

func (r *recordingRenderer) RenderSeries(string, series.Snapshot) {}

func (r *recordingRenderer) lastFrame(t *testing.T) renderedFrame {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	return r.frames[len(r.frames)-1]
}

// TestEndToEndWatchFlow walks the whole client path against an
// in-process server: OTP login, trader launch, live polling through
// stage transitions, persistence across a restart, and teardown.
func TestEndToEndWatchFlow(t *testing.T) {
	prices := newScriptedPrices()
	reg := stubapi.NewRegistry(prices, []string{"XBT/USD", "ETH/USD"})
	otp := stubapi.NewMemoryOTPStore(time.Now)
	srv := stubapi.NewServer("", otp, reg, slog.New(slog.DiscardHandler))

	var issuedCode string
	srv.OnCodeIssued = func(_, code string) { issuedCode = code }

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := api.NewClient(ts.URL + "/api")
	ctx := context.Background()

	// login: request a code, present it
	require.NoError(t, client.SendLoginCode(ctx, "Trader@Example.com"))
	require.NotEmpty(t, issuedCode)
	ok, err := client.CheckLoginCode(ctx, "trader@example.com", issuedCode)
	require.NoError(t, err)
	require.True(t, ok)

	// register a pair and launch a trader on it
	_, err = client.AddCoin(ctx, "trader@example.com", "sol/usd")
	require.NoError(t, err)
	symbols, err := client.Symbols(ctx)
	require.NoError(t, err)
	require.Contains(t, symbols, "SOL/USD")

	_, err = client.StartTrader(ctx, "trader@example.com", "XBT/USD", "base", "100")
	require.NoError(t, err)
	traders, err := client.ListTraders(ctx, "trader@example.com")
	require.NoError(t, err)
	require.Equal(t, []string{"XBT/USD"}, traders)

	// wire the live watch against the same server
	stateFile := filepath.Join(t.TempDir(), "state.json")
	state, err := persist.Open(stateFile, nil)
	require.NoError(t, err)

	sched := &manualScheduler{}
	render := &recordingRenderer{}
	store := series.NewStore(0)
	ctrl := watch.NewController(sched, client, store, state, render, time.Second, t.Logf)
	ctrl.SetOwner("trader@example.com")

	// first status call sees 2500: entry limit placed at 2487.50
	prices.push("XBT/USD", 2500)
	active := ctrl.RestoreOnLoad(traders)
	require.Equal(t, "XBT/USD", active)

	frame := render.lastFrame(t)
	require.Equal(t, "XBT/USD", frame.symbol)
	require.Equal(t, "buy_pending", frame.status.Stage)
	require.True(t, frame.entry.Show)
	require.InDelta(t, 2487.5, frame.entry.Value, 0.001)
	require.False(t, frame.sell.Show, "no sell limit before the buy fills")
	require.Len(t, frame.snap.Data, 1)

	// price dips below the entry limit: the buy fills, sell at entry*1.01
	prices.push("XBT/USD", 2480)
	sched.tick()

	frame = render.lastFrame(t)
	require.Equal(t, "holding", frame.status.Stage)
	require.True(t, frame.entry.Show)
	require.True(t, frame.sell.Show)
	require.InDelta(t, 2487.5*1.01, frame.sell.Value, 0.001)
	require.Len(t, frame.snap.Data, 2)

	// price clears the sell limit: position exits, annotations disappear
	prices.push("XBT/USD", 2520)
	sched.tick()

	frame = render.lastFrame(t)
	require.Equal(t, "scanning", frame.status.Stage)
	require.False(t, frame.entry.Show)
	require.False(t, frame.sell.Show)
	require.True(t, model.Finite(frame.status.Balance), "sell fill should report a balance")
	require.Len(t, frame.snap.Data, 3)

	ctrl.Teardown()

	// a fresh controller on the same state file resumes the same watch
	render2 := &recordingRenderer{}
	state2, err := persist.Open(stateFile, nil)
	require.NoError(t, err)
	ctrl2 := watch.NewController(sched, client, series.NewStore(0), state2, render2, time.Second, t.Logf)
	ctrl2.SetOwner("trader@example.com")

	prices.push("XBT/USD", 2510)
	require.Equal(t, "XBT/USD", ctrl2.RestoreOnLoad([]string{"ETH/USD", "XBT/USD"}))
	require.Equal(t, "XBT/USD", render2.lastFrame(t).symbol)
	ctrl2.Teardown()

	// stop the trader and confirm it is gone
	_, err = client.StopTrader(ctx, "trader@example.com", "XBT/USD")
	require.NoError(t, err)
	traders, err = client.ListTraders(ctx, "trader@example.com")
	require.NoError(t, err)
	require.Empty(t, traders)
}

// TestEndToEndSwitchKeepsChartConsistent drives two traders and checks
// that switching the watch never mixes series between symbols.
func TestEndToEndSwitchKeepsChartConsistent(t *testing.T) {
	prices := newScriptedPrices()
	reg := stubapi.NewRegistry(prices, []string{"XBT/USD", "ETH/USD"})
	otp := stubapi.NewMemoryOTPStore(time.Now)
	srv := stubapi.NewServer("", otp, reg, slog.New(slog.DiscardHandler))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := api.NewClient(ts.URL + "/api")
	ctx := context.Background()
	_, err := client.StartTrader(ctx, "o@x.com", "XBT/USD", "", "")
	require.NoError(t, err)
	_, err = client.StartTrader(ctx, "o@x.com", "ETH/USD", "", "")
	require.NoError(t, err)

	state, err := persist.Open(filepath.Join(t.TempDir(), "state.json"), nil)
	require.NoError(t, err)
	sched := &manualScheduler{}
	render := &recordingRenderer{}
	store := series.NewStore(0)
	ctrl := watch.NewController(sched, client, store, state, render, time.Second, t.Logf)
	ctrl.SetOwner("o@x.com")

	prices.push("XBT/USD", 2500)
	prices.push("ETH/USD", 180)

	ctrl.SwitchTo("XBT/USD")
	require.Equal(t, []float64{2500}, render.lastFrame(t).snap.Data)

	ctrl.SwitchTo("ETH/USD")
	frame := render.lastFrame(t)
	require.Equal(t, "ETH/USD", frame.symbol)
	require.Equal(t, []float64{180}, frame.snap.Data)

	// only the ETH schedule is live now
	prices.push("XBT/USD", 9999)
	prices.push("ETH/USD", 181)
	sched.tick()

	frame = render.lastFrame(t)
	require.Equal(t, "ETH/USD", frame.symbol)
	require.Equal(t, []float64{180, 181}, frame.snap.Data)
	require.Equal(t, 1, store.Len("XBT/USD"), "cancelled schedule must not keep appending")

	require.Equal(t, "ETH/USD", state.RestoreWatch())
}
