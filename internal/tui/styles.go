package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared across pages.
var (
	ColorNavy   = lipgloss.Color("#1a1b4b")
	ColorWhite  = lipgloss.Color("#ffffff")
	ColorGrey   = lipgloss.Color("240")
	ColorGreen  = lipgloss.Color("#22c55e")
	ColorRed    = lipgloss.Color("#ef4444")
	ColorYellow = lipgloss.Color("#eab308")
	ColorBlue   = lipgloss.Color("#60a5fa")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGrey).
			Padding(0, 1)

	activeSectionStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBlue).
				Padding(0, 1)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGrey)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorYellow).
			Foreground(ColorYellow).
			Padding(0, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	badgeStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite).
			Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().
				Background(ColorBlue).
				Foreground(ColorNavy).
				Bold(true)

	watchedItemStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(ColorGrey)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	entryLineStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	sellLineStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	priceLineStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)
)
