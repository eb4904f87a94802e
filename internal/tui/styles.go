package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/flowsilicon/keyconsole/internal/console"
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleHeader   = lipgloss.NewStyle().Bold(true).Underline(true)
	styleMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleCursor   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDisabled = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	styleKey      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))

	styleDialog = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("11")).
			Padding(0, 1)

	severityStyles = map[console.Severity]lipgloss.Style{
		console.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		console.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		console.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		console.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)
