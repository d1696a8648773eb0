package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zephyr-g16/tradewatch/internal/model"
	"github.com/zephyr-g16/tradewatch/internal/persist"
	"github.com/zephyr-g16/tradewatch/internal/watch"
)

const maxLogLines = 200

// DashboardModel is the main screen: trader list on the left, live
// chart and status on the right, action log along the bottom.
type DashboardModel struct {
	client TradingAPI
	ctrl   *watch.Controller
	state  *persist.State
	keys   KeyMap

	traders []string
	cursor  int

	chart     *ChartPanel
	status    model.TraderStatus
	hasStatus bool

	logLines []string
	errMsg   string
	loading  bool
}

func NewDashboardModel(client TradingAPI, ctrl *watch.Controller, state *persist.State) *DashboardModel {
	return &DashboardModel{
		client: client,
		ctrl:   ctrl,
		state:  state,
		keys:   DefaultKeyMap(),
		chart:  NewChartPanel(),
	}
}

func (m *DashboardModel) ID() string { return PageDashboard }

func (m *DashboardModel) Init() tea.Cmd {
	if owner := m.state.RestoreOwner(); owner != "" {
		m.ctrl.SetOwner(owner)
	}
	m.errMsg = ""
	return m.loadTradersCmd()
}

// Receive handles params from the start page, currently a notice line.
func (m *DashboardModel) Receive(params interface{}) {
	if line, ok := params.(string); ok && line != "" {
		m.appendLog(line)
	}
}

func (m *DashboardModel) loadTradersCmd() tea.Cmd {
	m.loading = true
	client := m.client
	owner := m.ctrl.Owner()
	if owner == "" {
		owner = m.state.RestoreOwner()
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		traders, err := client.ListTraders(ctx, owner)
		return tradersLoadedMsg{traders: traders, err: err}
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tradersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = "trader list: " + msg.err.Error()
			return nil, nil
		}
		m.errMsg = ""
		m.traders = msg.traders
		if m.cursor >= len(m.traders) {
			m.cursor = 0
		}
		if active := m.ctrl.RestoreOnLoad(m.traders); active != "" {
			for i, sym := range m.traders {
				if sym == active {
					m.cursor = i
				}
			}
		}
		return nil, nil

	case FrameMsg:
		// frames for a symbol that is no longer watched are dropped
		if msg.Symbol != m.ctrl.ActiveSymbol() {
			return nil, nil
		}
		m.chart.SetFrame(msg.Symbol, msg.Snap, msg.Entry, msg.Sell)
		m.status = msg.Status
		m.hasStatus = true
		return nil, nil

	case SeriesMsg:
		m.chart.SetSeries(msg.Symbol, msg.Snap)
		m.status = model.TraderStatus{}
		m.hasStatus = false
		return nil, nil

	case LogMsg:
		m.appendLog(msg.Line)
		return nil, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.appendLog("error: " + msg.err.Error())
			return nil, nil
		}
		m.appendLog(msg.summary)
		if msg.reload {
			return m.loadTradersCmd(), nil
		}
		return nil, nil
	}
	return nil, nil
}

func (m *DashboardModel) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
		return tea.Quit, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return nil, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.traders)-1 {
			m.cursor++
		}
		return nil, nil

	case key.Matches(msg, m.keys.Enter):
		if m.cursor < len(m.traders) {
			m.ctrl.SwitchTo(m.traders[m.cursor])
		}
		return nil, nil

	case key.Matches(msg, m.keys.NewTrader):
		return nil, &PageNav{PageID: PageStart}

	case key.Matches(msg, m.keys.Stop):
		return m.stopWatched(), nil

	case key.Matches(msg, m.keys.Logout):
		m.ctrl.Teardown()
		m.state.ClearOwner()
		m.traders = nil
		m.cursor = 0
		m.chart = NewChartPanel()
		m.status = model.TraderStatus{}
		m.hasStatus = false
		return nil, &PageNav{PageID: PageLogin}
	}
	return nil, nil
}

func (m *DashboardModel) stopWatched() tea.Cmd {
	symbol := m.ctrl.ActiveSymbol()
	if symbol == "" {
		m.appendLog("nothing is being watched")
		return nil
	}
	client := m.client
	owner := m.ctrl.Owner()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := client.StopTrader(ctx, owner, symbol); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{summary: "stopped " + symbol, reload: true}
	}
}

func (m *DashboardModel) appendLog(line string) {
	stamp := time.Now().Format("15:04:05")
	m.logLines = append([]string{stamp + "  " + line}, m.logLines...)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[:maxLogLines]
	}
}

func (m *DashboardModel) View(width, height int) string {
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 30
	}

	listWidth := 26
	chartWidth := width - listWidth - 4
	logHeight := 6
	panelHeight := height - logHeight - 4
	if panelHeight < 10 {
		panelHeight = 10
	}

	list := m.renderList(listWidth, panelHeight)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.chart.Render(chartWidth, panelHeight-9, true),
		m.renderStatus(chartWidth),
	)
	top := lipgloss.JoinHorizontal(lipgloss.Top, list, right)
	logPane := m.renderLog(width-2, logHeight)
	help := helpStyle.Render("↑/↓: select • enter: watch • n: new trader • x: stop • L: logout • q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, top, logPane, help)
}

func (m *DashboardModel) renderList(width, height int) string {
	var b strings.Builder
	b.WriteString(chartTitleStyle.Render("Traders"))
	b.WriteString("\n")

	if m.loading && len(m.traders) == 0 {
		b.WriteString(helpStyle.Render("loading..."))
	} else if len(m.traders) == 0 {
		b.WriteString(helpStyle.Render("no running traders"))
	}

	active := m.ctrl.ActiveSymbol()
	for i, sym := range m.traders {
		line := "  " + sym
		if i == m.cursor {
			line = "> " + sym
		}
		switch {
		case sym == active:
			line = watchedItemStyle.Render(line) + " " + badgeStyle.Render("LIVE")
		case i == m.cursor:
			line = selectedItemStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}
	return sectionStyle.Width(width).Height(height).Render(b.String())
}

func (m *DashboardModel) renderStatus(width int) string {
	if !m.hasStatus {
		return sectionStyle.Width(width).Render(helpStyle.Render("no status yet"))
	}
	field := func(label string, p *float64) string {
		if !model.Finite(p) {
			return labelStyle.Render(label+": ") + valueStyle.Render("-")
		}
		return labelStyle.Render(label+": ") + valueStyle.Render(fmt.Sprintf("%.2f", *p))
	}
	cols := []string{
		labelStyle.Render("stage: ") + valueStyle.Render(m.status.Stage),
		field("price", m.status.LastPrice),
		field("entry", m.status.EntryPrice),
		field("sell", m.status.SellLimit),
		field("balance", m.status.Balance),
		field("qty", m.status.Quantity),
	}
	return sectionStyle.Width(width).Render(strings.Join(cols, "   "))
}

func (m *DashboardModel) renderLog(width, height int) string {
	lines := m.logLines
	if len(lines) > height-2 {
		lines = lines[:height-2]
	}
	body := strings.Join(lines, "\n")
	if body == "" {
		body = helpStyle.Render("no activity yet")
	}
	return sectionStyle.Width(width).Height(height).Render(body)
}
