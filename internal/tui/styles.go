package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/netguard/internal/model"
)

var (
	// Colors
	Primary   = lipgloss.Color("205")
	Secondary = lipgloss.Color("86")
	Subtle    = lipgloss.Color("241")
	Success   = lipgloss.Color("46")
	Warning   = lipgloss.Color("214")
	Error     = lipgloss.Color("196")

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(Primary).
		Padding(0, 2).
		Align(lipgloss.Center)

	SectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Subtle).
		Padding(0, 2)

	SectionTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	LabelStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		Width(14)

	ValueStyle = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(Success)

	WarningStyle = lipgloss.NewStyle().
		Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	DimStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		Italic(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		MarginTop(1)

	LoadingStyle = lipgloss.NewStyle().
		Foreground(Primary).
		Padding(2, 4)

	ToastStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(Secondary).
		Padding(0, 1)

	BadgeStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Padding(0, 1)
)

// threatColors maps a threat level to its badge background.
var threatColors = map[model.ThreatLevel]lipgloss.Color{
	model.ThreatLow:      Success,
	model.ThreatMedium:   lipgloss.Color("226"),
	model.ThreatHigh:     Warning,
	model.ThreatCritical: Error,
}

// RenderStatus returns a styled status indicator.
func RenderStatus(ok bool, okText, failText string) string {
	if ok {
		return SuccessStyle.Render("● " + okText)
	}
	return DimStyle.Render("○ " + failText)
}

// RenderThreatLevel renders the threat level as a coloured badge.
func RenderThreatLevel(level model.ThreatLevel) string {
	color, ok := threatColors[level]
	if !ok {
		color = Subtle
	}
	return BadgeStyle.Background(color).Render(strings.ToUpper(string(level)))
}

// RenderToast renders a notification banner.
func RenderToast(n model.Notification) string {
	style := ToastStyle
	title := SuccessStyle.Render(n.Title)
	if n.Variant == model.VariantDestructive {
		style = style.BorderForeground(Error)
		title = ErrorStyle.Render(n.Title)
	}
	return style.Render(title + "  " + n.Description)
}

// RenderBar renders a progress bar.
func RenderBar(value, max int, width int) string {
	if max == 0 {
		max = 1
	}

	filled := int(float64(value) / float64(max) * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	return lipgloss.NewStyle().Foreground(Secondary).Render(bar)
}
