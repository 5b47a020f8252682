package viz

import "github.com/charmbracelet/lipgloss"

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)

	CanvasStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	StatusDone    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))

	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	ErrorPanel = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("203")).
			Padding(0, 1)

	WarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	HelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)
