package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/srg/blescale/controller"
)

// Screen palette.
var (
	colorPrimary  = lipgloss.Color("#007AFF")
	colorDisabled = lipgloss.Color("#CCCCCC")
	colorMuted    = lipgloss.Color("#666666")
	colorBorder   = lipgloss.Color("#EEEEEE")
	colorError    = lipgloss.Color("#FF3B30")
	colorWarning  = lipgloss.Color("#FF9500")
	colorSuccess  = lipgloss.Color("#34C759")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 2).
			Bold(true)

	buttonDisabledStyle = buttonStyle.
				Background(colorDisabled).
				Foreground(lipgloss.Color("#FFFFFF"))

	itemStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorBorder).
			PaddingLeft(2)

	selectedItemStyle = itemStyle.
				BorderLeft(true).
				BorderStyle(lipgloss.ThickBorder()).
				BorderLeftForeground(colorPrimary).
				PaddingLeft(1)

	nameStyle = lipgloss.NewStyle().Bold(true)
	idStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	helpStyle = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 3)
)

func alertColor(level controller.AlertLevel) lipgloss.Color {
	switch level {
	case controller.AlertError:
		return colorError
	case controller.AlertWarning:
		return colorWarning
	default:
		return colorSuccess
	}
}
