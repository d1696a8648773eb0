// Package series keeps a bounded rolling price history per symbol.
//
// Series live for the process lifetime only; nothing here is persisted.
// The store hands out copies, never its internal slices, so a chart
// holding a snapshot can never alias a series another poll is appending to.
package series

import (
	"math"
	"sync"

	"github.com/zephyr-g16/tradewatch/internal/model"
)

// Snapshot is an ordered view of one symbol's history. Labels and Data
// always have equal length.
type Snapshot struct {
	Labels []string
	Data   []float64
}

type entry struct {
	labels []string
	data   []float64
}

// Store owns all series, keyed by symbol. Series are created lazily on
// first append or snapshot and never removed.
type Store struct {
	mu        sync.Mutex
	maxPoints int
	bySymbol  map[string]*entry
}

// NewStore returns an empty store. maxPoints <= 0 falls back to
// model.MaxSeriesPoints.
func NewStore(maxPoints int) *Store {
	if maxPoints <= 0 {
		maxPoints = model.MaxSeriesPoints
	}
	return &Store{
		maxPoints: maxPoints,
		bySymbol:  make(map[string]*entry),
	}
}

func (s *Store) getOrCreate(symbol string) *entry {
	e, ok := s.bySymbol[symbol]
	if !ok {
		e = &entry{}
		s.bySymbol[symbol] = e
	}
	return e
}

// Append pushes one (label, price) point onto the symbol's series,
// evicting the oldest point once the cap is exceeded. Non-finite prices
// are dropped silently; a NaN in the series would corrupt the chart.
func (s *Store) Append(symbol, label string, price float64) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrCreate(symbol)
	e.labels = append(e.labels, label)
	e.data = append(e.data, price)
	if len(e.data) > s.maxPoints {
		e.labels = e.labels[1:]
		e.data = e.data[1:]
	}
}

// Snapshot returns a copy of the symbol's current history. An unknown
// symbol yields an empty (non-nil) snapshot.
func (s *Store) Snapshot(symbol string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrCreate(symbol)
	return Snapshot{
		Labels: append([]string{}, e.labels...),
		Data:   append([]float64{}, e.data...),
	}
}

// Len reports the current number of points held for symbol.
func (s *Store) Len(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.bySymbol[symbol]; ok {
		return len(e.data)
	}
	return 0
}
