package tui

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zephyr-g16/tradewatch/internal/model"
	"github.com/zephyr-g16/tradewatch/internal/series"
)

// TeaRenderer forwards watch render calls into a running bubbletea
// program as messages. The poller runs on its own goroutines, so the
// program's Send func is the safe way across.
//
// Bind must be called once the program exists; frames arriving before
// that are dropped.
type TeaRenderer struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewTeaRenderer() *TeaRenderer {
	return &TeaRenderer{}
}

func (r *TeaRenderer) Bind(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

func (r *TeaRenderer) post(msg tea.Msg) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (r *TeaRenderer) RenderFrame(symbol string, snap series.Snapshot, status model.TraderStatus, entry, sell model.Level) {
	r.post(FrameMsg{Symbol: symbol, Snap: snap, Status: status, Entry: entry, Sell: sell})
}

func (r *TeaRenderer) RenderSeries(symbol string, snap series.Snapshot) {
	r.post(SeriesMsg{Symbol: symbol, Snap: snap})
}

// Logf formats one line for the dashboard's log pane. The poller uses
// it to surface fetch failures from scheduled ticks.
func (r *TeaRenderer) Logf(format string, args ...interface{}) {
	r.post(LogMsg{Line: fmt.Sprintf(format, args...)})
}
