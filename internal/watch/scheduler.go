package watch

import (
	"sync"
	"time"
)

// CancelFunc stops a recurring schedule. Safe to call more than once.
type CancelFunc func()

// Scheduler abstracts recurring timers so the poller's state machine can
// be driven by a fake in tests instead of wall-clock tickers.
type Scheduler interface {
	// Every runs fn at the given period until cancelled. The first run
	// happens one period after scheduling, not immediately.
	Every(d time.Duration, fn func()) CancelFunc
}

// TickerScheduler runs schedules on real time.Ticker goroutines.
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
