package stubapi

import (
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/zephyr-g16/tradewatch/internal/model"
)

// PriceSource supplies the latest price per symbol. Implementations:
// RandomWalk (default) and KrakenFeed (live data).
type PriceSource interface {
	LastPrice(symbol string) (float64, bool)
}

// RandomWalk simulates prices with a small bounded drift per read.
type RandomWalk struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
}

// NewRandomWalk seeds starting prices; unknown symbols start at 100.
func NewRandomWalk(seed int64, start map[string]float64) *RandomWalk {
	prices := make(map[string]float64, len(start))
	for sym, p := range start {
		prices[sym] = p
	}
	return &RandomWalk{
		rng:    rand.New(rand.NewSource(seed)),
		prices: prices,
	}
}

func (w *RandomWalk) LastPrice(symbol string) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.prices[symbol]
	if !ok {
		p = 100
	}
	// Step up to ±0.2% per read.
	p *= 1 + (w.rng.Float64()-0.5)*0.004
	w.prices[symbol] = p
	return p, true
}

type trader struct {
	owner    string
	symbol   string
	strategy string
	fund     float64

	stage   string
	entry   *float64
	sell    *float64
	qty     *float64
	balance *float64
}

// Registry holds running traders and the tradable symbol list. Each
// status call advances a tiny stage machine (scanning -> buy_pending ->
// holding -> back to scanning on a sell fill), enough to exercise every
// annotation combination a client must render.
type Registry struct {
	mu      sync.Mutex
	prices  PriceSource
	symbols []string
	traders map[string]*trader
}

func NewRegistry(prices PriceSource, symbols []string) *Registry {
	return &Registry{
		prices:  prices,
		symbols: slices.Clone(symbols),
		traders: make(map[string]*trader),
	}
}

func traderKey(owner, symbol string) string {
	return owner + "|" + symbol
}

// Symbols returns the tradable symbol list.
func (r *Registry) Symbols() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.symbols)
}

// AddCoin registers a BASE/QUOTE pair, uppercased. Returns the full list
// and whether the input had a valid shape.
func (r *Registry) AddCoin(coin string) ([]string, bool) {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" || !strings.Contains(coin, "/") {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.symbols, coin) {
		r.symbols = append(r.symbols, coin)
	}
	return slices.Clone(r.symbols), true
}

// Start launches a trader for owner on symbol. Restarting an existing
// trader resets it.
func (r *Registry) Start(owner, symbol, strategy string, fund float64) bool {
	if symbol == "" {
		return false
	}
	if strategy == "" {
		strategy = "base"
	}
	if fund <= 0 {
		fund = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.traders[traderKey(owner, symbol)] = &trader{
		owner:    owner,
		symbol:   symbol,
		strategy: strategy,
		fund:     fund,
		stage:    "scanning",
	}
	return true
}

// Stop removes owner's trader on symbol; false when none was running.
func (r *Registry) Stop(owner, symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := traderKey(owner, symbol)
	if _, ok := r.traders[key]; !ok {
		return false
	}
	delete(r.traders, key)
	return true
}

// List returns the symbols owner has a running trader on.
func (r *Registry) List(owner string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, t := range r.traders {
		if t.owner == owner {
			out = append(out, t.symbol)
		}
	}
	slices.Sort(out)
	return out
}

// Status returns the current snapshot for owner's trader on symbol,
// advancing its stage machine against the latest price. ok is false
// when no such trader is running.
func (r *Registry) Status(owner, symbol string) (model.TraderStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.traders[traderKey(owner, symbol)]
	if !ok {
		return model.TraderStatus{}, false
	}

	price, havePrice := r.prices.LastPrice(symbol)
	if havePrice {
		t.advance(price)
	}

	st := model.TraderStatus{
		Symbol:     t.symbol,
		Stage:      t.stage,
		EntryPrice: t.entry,
		SellLimit:  t.sell,
		Quantity:   t.qty,
		Balance:    t.balance,
	}
	if havePrice {
		st.LastPrice = &price
	}
	return st, true
}

func (t *trader) advance(price float64) {
	switch t.stage {
	case "scanning":
		// Place a buy limit just under the market.
		entry := price * 0.995
		t.entry = &entry
		t.sell = nil
		t.stage = "buy_pending"
	case "buy_pending":
		if t.entry != nil && price <= *t.entry {
			qty := t.fund / *t.entry
			sell := *t.entry * 1.01
			t.qty = &qty
			t.sell = &sell
			t.stage = "holding"
		}
	case "holding":
		if t.sell != nil && price >= *t.sell {
			balance := *t.qty * *t.sell
			t.balance = &balance
			t.entry = nil
			t.sell = nil
			t.qty = nil
			t.stage = "scanning"
		}
	}
}
