package model

import "math"

// TraderStatus is the decoded result of one /traders/status poll.
// Optional fields are pointers: nil = the trader has not produced that
// value yet (no entry placed, no sell limit set, and so on).
type TraderStatus struct {
	Symbol     string   `json:"symbol"`
	Stage      string   `json:"stage"`
	LastPrice  *float64 `json:"last_price,omitempty"`
	EntryPrice *float64 `json:"entry_price,omitempty"`
	SellLimit  *float64 `json:"sell_limit,omitempty"`
	Balance    *float64 `json:"balance,omitempty"`
	Quantity   *float64 `json:"quantity,omitempty"`
}

// Finite reports whether p points to a usable number. NaN and infinities
// are treated the same as absent values so they never reach the chart.
func Finite(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

// Level is a horizontal chart annotation (entry or sell limit).
// Show is false when the source value was absent or non-finite.
type Level struct {
	Value float64
	Show  bool
}

// LevelFrom builds a Level from an optional status field.
func LevelFrom(p *float64) Level {
	if !Finite(p) {
		return Level{}
	}
	return Level{Value: *p, Show: true}
}
