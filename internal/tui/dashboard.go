package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/monitor"
	"github.com/user/netguard/internal/report"
)

const (
	maxTrafficRows = 10
	maxAlertRows   = 5
)

// Dashboard is the main dashboard view.
type Dashboard struct {
	snap   monitor.Snapshot
	width  int
	height int

	// Toast is the most recent notification, if any.
	Toast *model.Notification
	// Spinner is shown next to the state while a refresh is in flight.
	Spinner string
}

// NewDashboard creates a new dashboard.
func NewDashboard(snap monitor.Snapshot, width, height int) *Dashboard {
	return &Dashboard{
		snap:   snap,
		width:  width,
		height: height,
	}
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	var sb strings.Builder

	header := HeaderStyle.Width(d.width).Render("🛡 NetGuard Monitor")
	sb.WriteString(header)
	sb.WriteString("\n\n")

	if d.Toast != nil {
		sb.WriteString(RenderToast(*d.Toast))
		sb.WriteString("\n\n")
	}

	sb.WriteString(d.renderStatusSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderStatsSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderAlertsSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderTrafficSection())
	sb.WriteString("\n")

	help := HelpStyle.Render("Press 's' to start/stop • 'r' to refresh • 'q' to quit")
	sb.WriteString(help)

	return sb.String()
}

func (d *Dashboard) sectionWidth() int {
	w := d.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func (d *Dashboard) renderStatusSection() string {
	state := RenderStatus(d.snap.State == monitor.Active, "Monitoring", "Stopped")
	if d.snap.Loading {
		state += " " + d.Spinner + DimStyle.Render(" refreshing")
	}

	started := "-"
	if !d.snap.StartedAt.IsZero() {
		started = d.snap.StartedAt.Format("15:04:05")
	}

	content := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s",
		LabelStyle.Render("State:"),
		state,
		LabelStyle.Render("Started:"),
		ValueStyle.Render(started),
		LabelStyle.Render("Ticks:"),
		ValueStyle.Render(fmt.Sprintf("%d", d.snap.Ticks)),
	)
	if d.snap.LastError != "" {
		content += "\n" + LabelStyle.Render("Last Error:") + " " + ErrorStyle.Render(d.snap.LastError)
	}

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("📡 Session") + "\n" + content)
}

func (d *Dashboard) renderStatsSection() string {
	stats := d.snap.Stats

	content := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s\n%s %s",
		LabelStyle.Render("Traffic:"),
		ValueStyle.Render(report.FormatBytes(stats.TotalTraffic)),
		LabelStyle.Render("Connections:"),
		ValueStyle.Render(fmt.Sprintf("%d", stats.ActiveConnections)),
		LabelStyle.Render("Alerts Today:"),
		ValueStyle.Render(fmt.Sprintf("%d", stats.AlertsToday)),
		LabelStyle.Render("Threat Level:"),
		RenderThreatLevel(stats.ThreatLevel),
	)

	if len(stats.Protocols) > 0 {
		names := make([]string, 0, len(stats.Protocols))
		total := 0
		for name, n := range stats.Protocols {
			names = append(names, name)
			total += n
		}
		sort.Strings(names)

		content += "\n"
		for _, name := range names {
			n := stats.Protocols[name]
			content += fmt.Sprintf("\n%s %s %d", LabelStyle.Render(name), RenderBar(n, total, 20), n)
		}
	}

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("📊 Statistics") + "\n" + content)
}

func (d *Dashboard) renderAlertsSection() string {
	title := SectionTitleStyle.Render("🚨 Recent Alerts")
	if len(d.snap.Alerts) == 0 {
		return SectionStyle.Width(d.sectionWidth()).Render(
			title + "\n" + DimStyle.Render("No alerts"))
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%-9s %-16s %-16s %-18s %s", "Time", "Source", "Destination", "Threat", "Score"))
	rows = append(rows, strings.Repeat("─", 70))

	n := len(d.snap.Alerts)
	if n > maxAlertRows {
		n = maxAlertRows
	}
	for _, a := range d.snap.Alerts[:n] {
		rows = append(rows, WarningStyle.Render(fmt.Sprintf("%-9s %-16s %-16s %-18s %d%%",
			a.Timestamp.Format("15:04:05"), a.SourceIP, a.DestinationIP, a.ThreatType, a.ConfidenceScore)))
	}

	return SectionStyle.Width(d.sectionWidth()).Render(title + "\n" + strings.Join(rows, "\n"))
}

func (d *Dashboard) renderTrafficSection() string {
	title := SectionTitleStyle.Render("🌐 Live Traffic")
	if len(d.snap.Events) == 0 {
		return SectionStyle.Width(d.sectionWidth()).Render(
			title + "\n" + DimStyle.Render("No traffic yet. Press 's' to start monitoring."))
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%-9s %-16s %-16s %-6s %-6s %s", "Time", "Source", "Destination", "Proto", "Port", "Bytes"))
	rows = append(rows, strings.Repeat("─", 70))

	n := len(d.snap.Events)
	if n > maxTrafficRows {
		n = maxTrafficRows
	}
	for _, ev := range d.snap.Events[:n] {
		row := fmt.Sprintf("%-9s %-16s %-16s %-6s %-6d %s",
			ev.Timestamp.Format("15:04:05"), ev.SourceIP, ev.DestinationIP, ev.Protocol, ev.Port, report.FormatBytes(ev.Bytes))
		if ev.IsMalicious {
			row = ErrorStyle.Render(row)
		}
		rows = append(rows, row)
	}

	if len(d.snap.Events) > n {
		rows = append(rows, DimStyle.Render(fmt.Sprintf("... and %d more", len(d.snap.Events)-n)))
	}

	return SectionStyle.Width(d.sectionWidth()).Render(title + "\n" + strings.Join(rows, "\n"))
}
