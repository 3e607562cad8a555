package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)
)

// FormatPnLWithIndicator formats a total P&L with an up or down marker.
func FormatPnLWithIndicator(pnl float64) string {
	pnlStr := fmt.Sprintf("%.2f", pnl)

	if pnl > 0 {
		return pnlStr + " ▲"
	} else if pnl < 0 {
		return pnlStr + " ▼"
	}

	return pnlStr
}
