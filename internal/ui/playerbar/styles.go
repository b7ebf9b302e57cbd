package playerbar

import "github.com/charmbracelet/lipgloss"

const (
	playSymbol   = "▶"
	pauseSymbol  = "⏸"
	bufferSymbol = "◌"
	doneSymbol   = "✓"
	errorSymbol  = "✗"
	sleepSymbol  = "☾"
)

var (
	barStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	expandedBarStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)
