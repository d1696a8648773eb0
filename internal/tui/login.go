package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zephyr-g16/tradewatch/internal/persist"
)

const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageStart     = "start"
)

type loginPhase int

const (
	phaseEmail loginPhase = iota
	phaseCode
)

// LoginModel drives the two-step email plus one-time-code login flow.
type LoginModel struct {
	client TradingAPI
	state  *persist.State
	keys   KeyMap

	phase      loginPhase
	emailInput textinput.Model
	codeInput  textinput.Model
	email      string

	busy   bool
	notice string
	errMsg string
}

func NewLoginModel(client TradingAPI, state *persist.State) *LoginModel {
	emailInput := textinput.New()
	emailInput.Placeholder = "you@example.com"
	emailInput.CharLimit = 120
	emailInput.Focus()

	codeInput := textinput.New()
	codeInput.Placeholder = "6-digit code"
	codeInput.CharLimit = 6

	return &LoginModel{
		client:     client,
		state:      state,
		keys:       DefaultKeyMap(),
		emailInput: emailInput,
		codeInput:  codeInput,
	}
}

func (m *LoginModel) ID() string { return PageLogin }

func (m *LoginModel) Init() tea.Cmd {
	m.phase = phaseEmail
	m.busy = false
	m.notice = ""
	m.errMsg = ""
	m.codeInput.SetValue("")
	m.codeInput.Blur()
	m.emailInput.Focus()
	return textinput.Blink
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return tea.Quit, nil
		}
		if m.busy {
			return nil, nil
		}
		switch {
		case msg.Type == tea.KeyEnter:
			return m.submit()
		case key.Matches(msg, m.keys.Escape):
			if m.phase == phaseCode {
				// back to the email step, code on the server stays valid
				m.phase = phaseEmail
				m.errMsg = ""
				m.notice = ""
				m.codeInput.SetValue("")
				m.codeInput.Blur()
				m.emailInput.Focus()
				return textinput.Blink, nil
			}
			return nil, nil
		}

	case codeSentMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return nil, nil
		}
		m.phase = phaseCode
		m.notice = "Code sent to " + m.email
		m.emailInput.Blur()
		m.codeInput.Focus()
		return textinput.Blink, nil

	case codeCheckedMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.codeInput.SetValue("")
			return nil, nil
		}
		if !msg.ok {
			m.errMsg = "wrong code"
			m.codeInput.SetValue("")
			return nil, nil
		}
		m.state.RememberOwner(m.email)
		return nil, &PageNav{PageID: PageDashboard}
	}

	var cmd tea.Cmd
	if m.phase == phaseEmail {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.codeInput, cmd = m.codeInput.Update(msg)
	}
	return cmd, nil
}

func (m *LoginModel) submit() (tea.Cmd, *PageNav) {
	m.errMsg = ""
	switch m.phase {
	case phaseEmail:
		email := strings.ToLower(strings.TrimSpace(m.emailInput.Value()))
		if email == "" || !strings.Contains(email, "@") {
			m.errMsg = "enter a valid email address"
			return nil, nil
		}
		m.email = email
		m.busy = true
		m.notice = "Sending code..."
		client := m.client
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return codeSentMsg{err: client.SendLoginCode(ctx, email)}
		}, nil
	case phaseCode:
		code := strings.TrimSpace(m.codeInput.Value())
		if code == "" {
			m.errMsg = "enter the code from your email"
			return nil, nil
		}
		m.busy = true
		m.notice = "Checking code..."
		client := m.client
		email := m.email
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			ok, err := client.CheckLoginCode(ctx, email, code)
			return codeCheckedMsg{ok: ok, err: err}
		}, nil
	}
	return nil, nil
}

func (m *LoginModel) View(width, height int) string {
	var b strings.Builder
	b.WriteString(chartTitleStyle.Render("tradewatch login"))
	b.WriteString("\n\n")

	if m.phase == phaseEmail {
		b.WriteString(labelStyle.Render("Email"))
		b.WriteString("\n")
		b.WriteString(m.emailInput.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: send code • ctrl+c: quit"))
	} else {
		b.WriteString(labelStyle.Render("Code for " + m.email))
		b.WriteString("\n")
		b.WriteString(m.codeInput.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: verify • esc: change email • ctrl+c: quit"))
	}

	if m.notice != "" && m.errMsg == "" {
		b.WriteString("\n\n")
		b.WriteString(noticeStyle.Render(m.notice))
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
