package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	biliBlue  = lipgloss.Color("#00A1D6")
	biliPink  = lipgloss.Color("#FB7299")
	dimWhite  = lipgloss.Color("#B0B0B0")
	errorRed  = lipgloss.Color("#FF4D4F")
	okGreen   = lipgloss.Color("#52C41A")
	panelEdge = lipgloss.Color("#3A3F5C")

	titleStyle = lipgloss.NewStyle().
			Foreground(biliPink).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelEdge).
			Padding(0, 2)

	statusStyle = lipgloss.NewStyle().
			Foreground(biliBlue)

	detailStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorRed).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(okGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Faint(true)
)
