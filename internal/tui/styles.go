package tui

import (
	"github.com/charmbracelet/lipgloss"

	"scribeflow/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	docStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	bodyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	placeholder   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	ruleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	severityStyles = map[domain.Severity]lipgloss.Style{
		domain.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		domain.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		domain.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	}
)

func severityStyle(s domain.Severity) lipgloss.Style {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return labelStyle
}
