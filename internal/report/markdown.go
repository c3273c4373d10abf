package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/netguard/internal/util"
)

// maxEventRows caps the traffic table in the markdown report.
const maxEventRows = 20

// FormatMarkdown renders the report as markdown.
func FormatMarkdown(data *ReportData) string {
	var sb strings.Builder

	sb.WriteString("# NetGuard Network Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s  \n", data.GeneratedAt.Format("2006-01-02 15:04:05")))
	if data.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s  \n", data.Source))
	}
	sb.WriteString("\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Threat Level | %s |\n", strings.ToUpper(string(data.Stats.ThreatLevel))))
	sb.WriteString(fmt.Sprintf("| Total Traffic | %s |\n", FormatBytes(data.Stats.TotalTraffic)))
	sb.WriteString(fmt.Sprintf("| Active Connections | %d |\n", data.Stats.ActiveConnections))
	sb.WriteString(fmt.Sprintf("| Alerts Today | %d |\n", data.Stats.AlertsToday))
	sb.WriteString(fmt.Sprintf("| Events Sampled | %d |\n", data.EventCount))
	sb.WriteString(fmt.Sprintf("| Malicious Events | %d (%.1f%%) |\n", data.MaliciousCount, data.MaliciousRatio()*100))
	sb.WriteString(fmt.Sprintf("| Sampled Volume | %s |\n", FormatBytes(data.TotalBytes)))
	if data.Status != nil {
		sb.WriteString(fmt.Sprintf("| Monitoring | %s |\n", data.Status.State))
		sb.WriteString(fmt.Sprintf("| Ticks | %d |\n", data.Status.Ticks))
	}
	sb.WriteString("\n")

	// Alerts
	sb.WriteString("## Recent Alerts\n\n")
	if len(data.Alerts) == 0 {
		sb.WriteString("No alerts.\n\n")
	} else {
		sb.WriteString("| Time | Threat | Source | Destination | Port | Confidence |\n")
		sb.WriteString("|------|--------|--------|-------------|------|------------|\n")
		for _, a := range data.Alerts {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %d%% |\n",
				a.Timestamp.Format("15:04:05"), a.ThreatType, a.SourceIP,
				a.DestinationIP, a.Port, a.ConfidenceScore))
		}
		sb.WriteString("\n")
		sb.WriteString(GenerateAlertFlow(data.Alerts))
		sb.WriteString("\n")
	}

	if pie := GenerateThreatPie(data.ThreatCounts); pie != "" {
		sb.WriteString("### Threat Types\n\n")
		sb.WriteString(pie)
		sb.WriteString("\n")
	}

	// Traffic
	sb.WriteString("## Traffic\n\n")
	if pie := GenerateProtocolPie(data.ProtocolCounts); pie != "" {
		sb.WriteString(pie)
		sb.WriteString("\n")
	}

	if ports := data.SortedPorts(); len(ports) > 0 {
		sb.WriteString("| Port | Flows |\n")
		sb.WriteString("|------|-------|\n")
		for _, p := range ports {
			sb.WriteString(fmt.Sprintf("| %d | %d |\n", p, data.PortCounts[p]))
		}
		sb.WriteString("\n")
	}

	if len(data.TopTalkers) > 0 {
		sb.WriteString("### Top Talkers\n\n")
		sb.WriteString("| Address | Volume | Packets | Flows |\n")
		sb.WriteString("|---------|--------|---------|-------|\n")
		for _, t := range data.TopTalkers {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d |\n",
				t.IP, FormatBytes(t.Bytes), t.Packets, t.Connections))
		}
		sb.WriteString("\n")
	}

	if len(data.Events) > 0 {
		sb.WriteString("### Latest Events\n\n")
		sb.WriteString("| Time | Source | Destination | Protocol | Port | Bytes | Status |\n")
		sb.WriteString("|------|--------|-------------|----------|------|-------|--------|\n")
		for i, ev := range data.Events {
			if i == maxEventRows {
				break
			}
			status := "Normal"
			if ev.IsMalicious {
				status = string(ev.ThreatType)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s | %s |\n",
				ev.Timestamp.Format("15:04:05"), ev.SourceIP, ev.DestinationIP,
				ev.Protocol, ev.Port, FormatBytes(ev.Bytes), status))
		}
		if len(data.Events) > maxEventRows {
			sb.WriteString(fmt.Sprintf("\n_%d more events omitted._\n", len(data.Events)-maxEventRows))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteMarkdownFile writes the report into dir and returns the file path.
func WriteMarkdownFile(data *ReportData, dir string) (string, error) {
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("netguard_report_%s.md", data.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(FormatMarkdown(data)), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// FormatBytes renders a byte count with a binary unit, e.g. "1.5 KB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
