package watch

import "charm.land/lipgloss/v2"

var (
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activityStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	idleStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	temperatureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	warmStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Bold(true)
	hotStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	dividerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusInfoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29"))
	statusErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160"))
	cardStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1)
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const (
	warmThreshold = 70.0
	hotThreshold  = 85.0
)
