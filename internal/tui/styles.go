package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorFg        = "#F8FAFC" // Slate 50
	colorFgMuted   = "#94A3B8" // Slate 400
	colorPrimary   = "#3B82F6" // Blue 500
	colorSuccess   = "#10B981" // Emerald 500
	colorWarning   = "#F59E0B" // Amber 500
	colorError     = "#EF4444" // Red 500
	colorBorder    = "#334155" // Slate 700
	colorUser      = "#3B82F6" // Blue 500
	colorAssistant = "#10B981" // Emerald 500
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorFg)).
			Padding(0, 1).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(colorBorder))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted))

	userHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorUser))

	assistantHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorAssistant))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted)).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)
)
