package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/netguard/internal/model"
)

// GenerateProtocolPie creates a Mermaid pie chart of the protocol mix.
func GenerateProtocolPie(counts map[model.Protocol]int) string {
	if len(counts) == 0 {
		return ""
	}

	slices := make(map[string]int, len(counts))
	for p, n := range counts {
		slices[string(p)] = n
	}
	return pie("Protocol Mix", slices)
}

// GenerateThreatPie creates a Mermaid pie chart of threat types.
func GenerateThreatPie(counts map[model.ThreatType]int) string {
	if len(counts) == 0 {
		return ""
	}

	slices := make(map[string]int, len(counts))
	for t, n := range counts {
		slices[string(t)] = n
	}
	return pie("Threat Types", slices)
}

// GenerateAlertFlow creates a Mermaid flowchart linking alert sources to
// their destinations.
func GenerateAlertFlow(alerts []model.Alert) string {
	if len(alerts) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("flowchart LR\n")

	nodes := make(map[string]string)
	edges := make(map[string]bool)
	var edgeList []string

	for _, a := range alerts {
		src := ipToNodeID(a.SourceIP)
		dst := ipToNodeID(a.DestinationIP)
		nodes[src] = fmt.Sprintf("    %s[%s]:::attacker\n", src, a.SourceIP)
		if _, ok := nodes[dst]; !ok {
			nodes[dst] = fmt.Sprintf("    %s[%s]:::target\n", dst, a.DestinationIP)
		}

		edge := fmt.Sprintf("    %s -->|%s| %s\n", src, a.ThreatType, dst)
		if !edges[edge] {
			edges[edge] = true
			edgeList = append(edgeList, edge)
		}
	}

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		sb.WriteString(nodes[id])
	}

	sb.WriteString("\n")
	for _, edge := range edgeList {
		sb.WriteString(edge)
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef attacker fill:#FFB6C1,stroke:#FF0000\n")
	sb.WriteString("    classDef target fill:#87CEEB\n")
	sb.WriteString("```\n")

	return sb.String()
}

func pie(title string, slices map[string]int) string {
	labels := make([]string, 0, len(slices))
	for l := range slices {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", title))
	for _, l := range labels {
		sb.WriteString(fmt.Sprintf("    %q : %d\n", l, slices[l]))
	}
	sb.WriteString("```\n")

	return sb.String()
}

func ipToNodeID(ip string) string {
	// Convert IP to valid Mermaid node ID
	return "N" + strings.ReplaceAll(ip, ".", "_")
}
