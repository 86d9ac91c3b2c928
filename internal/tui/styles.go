package tui

import "github.com/charmbracelet/lipgloss"

const (
	accent = lipgloss.Color("36")
	muted  = lipgloss.Color("244")
	alert  = lipgloss.Color("160")
	amber  = lipgloss.Color("178")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(accent).Padding(0, 1).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(accent).Underline(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	// completed tasks stay visible but dimmed
	doneStyle    = lipgloss.NewStyle().Foreground(muted)
	dangerStyle  = lipgloss.NewStyle().Foreground(alert).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(amber)
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
)
