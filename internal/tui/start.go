package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zephyr-g16/tradewatch/internal/watch"
)

type startFocus int

const (
	focusSymbols startFocus = iota
	focusStrategy
	focusFund
	focusAddCoin
)

// StartModel is the new-trader page: pick a symbol, tweak strategy and
// funding, launch. It also lets the user register a new coin pair.
type StartModel struct {
	client TradingAPI
	ctrl   *watch.Controller
	keys   KeyMap

	symbols []string
	cursor  int
	focus   startFocus

	strategyInput textinput.Model
	fundInput     textinput.Model
	coinInput     textinput.Model

	busy   bool
	errMsg string
}

func NewStartModel(client TradingAPI, ctrl *watch.Controller) *StartModel {
	strategyInput := textinput.New()
	strategyInput.SetValue("base")
	strategyInput.CharLimit = 40

	fundInput := textinput.New()
	fundInput.SetValue("100")
	fundInput.CharLimit = 20

	coinInput := textinput.New()
	coinInput.Placeholder = "XBT/USD"
	coinInput.CharLimit = 20

	return &StartModel{
		client:        client,
		ctrl:          ctrl,
		keys:          DefaultKeyMap(),
		strategyInput: strategyInput,
		fundInput:     fundInput,
		coinInput:     coinInput,
	}
}

func (m *StartModel) ID() string { return PageStart }

func (m *StartModel) Init() tea.Cmd {
	m.focus = focusSymbols
	m.busy = false
	m.errMsg = ""
	m.strategyInput.Blur()
	m.fundInput.Blur()
	m.coinInput.Blur()
	return m.loadSymbolsCmd()
}

func (m *StartModel) loadSymbolsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		symbols, err := client.Symbols(ctx)
		return symbolsLoadedMsg{symbols: symbols, err: err}
	}
}

func (m *StartModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case symbolsLoadedMsg:
		if msg.err != nil {
			m.errMsg = "symbols: " + msg.err.Error()
			return nil, nil
		}
		m.symbols = msg.symbols
		if m.cursor >= len(m.symbols) {
			m.cursor = 0
		}
		return nil, nil

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return nil, nil
		}
		if msg.reload {
			// a trader was launched, hand the notice to the dashboard
			return nil, &PageNav{PageID: PageDashboard, Params: msg.summary}
		}
		// add_coin succeeded, refresh the pick list
		m.errMsg = ""
		m.coinInput.SetValue("")
		m.setFocus(focusSymbols)
		return m.loadSymbolsCmd(), nil
	}

	return m.updateFocused(msg), nil
}

func (m *StartModel) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit, nil
	}
	if m.busy {
		return nil, nil
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		return nil, &PageNav{PageID: PageDashboard}
	case msg.Type == tea.KeyTab:
		m.setFocus((m.focus + 1) % 4)
		return textinput.Blink, nil
	case msg.Type == tea.KeyShiftTab:
		m.setFocus((m.focus + 3) % 4)
		return textinput.Blink, nil
	case msg.Type == tea.KeyEnter:
		return m.submit(), nil
	}

	if m.focus == focusSymbols {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return nil, nil
		case "down", "j":
			if m.cursor < len(m.symbols)-1 {
				m.cursor++
			}
			return nil, nil
		}
		return nil, nil
	}

	return m.updateFocused(msg), nil
}

func (m *StartModel) setFocus(f startFocus) {
	m.focus = f
	m.strategyInput.Blur()
	m.fundInput.Blur()
	m.coinInput.Blur()
	switch f {
	case focusStrategy:
		m.strategyInput.Focus()
	case focusFund:
		m.fundInput.Focus()
	case focusAddCoin:
		m.coinInput.Focus()
	}
}

func (m *StartModel) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusStrategy:
		m.strategyInput, cmd = m.strategyInput.Update(msg)
	case focusFund:
		m.fundInput, cmd = m.fundInput.Update(msg)
	case focusAddCoin:
		m.coinInput, cmd = m.coinInput.Update(msg)
	}
	return cmd
}

func (m *StartModel) submit() tea.Cmd {
	m.errMsg = ""
	owner := m.ctrl.Owner()
	client := m.client

	if m.focus == focusAddCoin {
		coin := strings.TrimSpace(m.coinInput.Value())
		if coin == "" {
			m.errMsg = "enter a pair like XBT/USD"
			return nil
		}
		m.busy = true
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := client.AddCoin(ctx, owner, coin); err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{summary: "added " + strings.ToUpper(coin)}
		}
	}

	if m.cursor >= len(m.symbols) {
		m.errMsg = "no symbol selected"
		return nil
	}
	symbol := m.symbols[m.cursor]
	strategy := strings.TrimSpace(m.strategyInput.Value())
	fund := strings.TrimSpace(m.fundInput.Value())
	m.busy = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := client.StartTrader(ctx, owner, symbol, strategy, fund); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{summary: "started " + symbol, reload: true}
	}
}

func (m *StartModel) View(width, height int) string {
	var b strings.Builder
	b.WriteString(chartTitleStyle.Render("New trader"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Symbol"))
	b.WriteString("\n")
	if len(m.symbols) == 0 {
		b.WriteString(helpStyle.Render("loading symbols..."))
		b.WriteString("\n")
	}
	for i, sym := range m.symbols {
		line := "  " + sym
		if i == m.cursor {
			line = "> " + sym
			if m.focus == focusSymbols {
				line = selectedItemStyle.Render(line)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Strategy "))
	b.WriteString(m.strategyInput.View())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Fund     "))
	b.WriteString(m.fundInput.View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Add coin "))
	b.WriteString(m.coinInput.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("tab: next field • enter: submit • esc: back"))

	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(noticeStyle.Render("working..."))
	}
	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}

	box := sectionStyle.Width(min(width-2, 60)).Render(b.String())
	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
