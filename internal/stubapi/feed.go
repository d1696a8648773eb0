package stubapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const krakenWSURL = "wss://ws.kraken.com"

// KrakenFeed sources live last-trade prices from Kraken's public
// websocket ticker channel. It satisfies PriceSource; symbols it has
// not yet seen a tick for report ok=false.
type KrakenFeed struct {
	url     string
	symbols []string
	log     *slog.Logger

	mu     sync.RWMutex
	latest map[string]float64
}

// NewKrakenFeed prepares a feed for the given BASE/QUOTE pairs.
func NewKrakenFeed(symbols []string, logger *slog.Logger) *KrakenFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &KrakenFeed{
		url:     krakenWSURL,
		symbols: symbols,
		log:     logger,
		latest:  make(map[string]float64),
	}
}

func (f *KrakenFeed) LastPrice(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.latest[symbol]
	return p, ok
}

// Run connects and consumes ticker messages until ctx is cancelled,
// reconnecting with a flat backoff on any failure.
func (f *KrakenFeed) Run(ctx context.Context) error {
	for {
		if err := f.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn("kraken feed disconnected", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (f *KrakenFeed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"event":        "subscribe",
		"pair":         f.symbols,
		"subscription": map[string]string{"name": "ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	// Unblock ReadMessage when ctx is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.handleMessage(raw)
	}
}

// handleMessage folds one frame into the latest-price map. Ticker data
// frames are arrays: [channelID, {"c": ["<last>", ...], ...}, "ticker",
// "<pair>"]. Event objects (heartbeats, subscription acks) are ignored.
func (f *KrakenFeed) handleMessage(raw []byte) {
	var frame []json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil || len(frame) < 4 {
		return
	}

	var pair string
	if err := json.Unmarshal(frame[len(frame)-1], &pair); err != nil {
		return
	}

	var data struct {
		C []string `json:"c"`
	}
	if err := json.Unmarshal(frame[1], &data); err != nil || len(data.C) == 0 {
		return
	}

	price, err := strconv.ParseFloat(data.C[0], 64)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.latest[pair] = price
	f.mu.Unlock()
}
