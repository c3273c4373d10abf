// Package report generates network monitoring reports.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/monitor"
)

// Generator creates reports from a monitoring API.
type Generator struct {
	fetcher monitor.Fetcher
	source  string
}

// NewGenerator creates a new report generator reading from fetcher.
// source names the data origin in the report header.
func NewGenerator(fetcher monitor.Fetcher, source string) *Generator {
	return &Generator{
		fetcher: fetcher,
		source:  source,
	}
}

// ReportData holds all data for a report.
type ReportData struct {
	GeneratedAt time.Time
	Source      string

	// Session section
	Status *model.MonitorStatus

	// Traffic section
	Events         []model.TrafficEvent
	EventCount     int
	MaliciousCount int
	TotalBytes     int64
	ProtocolCounts map[model.Protocol]int
	PortCounts     map[int]int
	TopTalkers     []model.TopTalker

	// Threat section
	Alerts       []model.Alert
	ThreatCounts map[model.ThreatType]int

	Stats model.NetworkStats
}

// Generate fetches the current traffic, stats and alerts and builds a report.
func (g *Generator) Generate(ctx context.Context) (*ReportData, error) {
	events, err := g.fetcher.FetchTraffic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get traffic: %w", err)
	}

	stats, err := g.fetcher.FetchStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	alerts, err := g.fetcher.FetchAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}

	return Build(g.source, events, alerts, stats, time.Now()), nil
}

// FromSnapshot builds a report from an in-process session snapshot.
func FromSnapshot(snap monitor.Snapshot, source string) *ReportData {
	data := Build(source, snap.Events, snap.Alerts, snap.Stats, time.Now())
	status := snap.Status()
	data.Status = &status
	return data
}

// Build summarises events, alerts and stats.
func Build(source string, events []model.TrafficEvent, alerts []model.Alert, stats model.NetworkStats, now time.Time) *ReportData {
	data := &ReportData{
		GeneratedAt:    now,
		Source:         source,
		Events:         events,
		EventCount:     len(events),
		Alerts:         alerts,
		Stats:          stats,
		ProtocolCounts: make(map[model.Protocol]int),
		PortCounts:     make(map[int]int),
		ThreatCounts:   make(map[model.ThreatType]int),
	}

	for _, ev := range events {
		data.TotalBytes += ev.Bytes
		data.ProtocolCounts[ev.Protocol]++
		data.PortCounts[ev.Port]++
		if ev.IsMalicious {
			data.MaliciousCount++
			data.ThreatCounts[ev.ThreatType]++
		}
	}

	data.TopTalkers = stats.TopTalkers
	if len(data.TopTalkers) == 0 {
		data.TopTalkers = monitor.TopTalkers(events, 5)
	}

	return data
}

// SortedPorts returns the observed ports ordered by frequency.
func (d *ReportData) SortedPorts() []int {
	ports := make([]int, 0, len(d.PortCounts))
	for p := range d.PortCounts {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool {
		if d.PortCounts[ports[i]] != d.PortCounts[ports[j]] {
			return d.PortCounts[ports[i]] > d.PortCounts[ports[j]]
		}
		return ports[i] < ports[j]
	})
	return ports
}

// MaliciousRatio returns the share of malicious events, 0 when empty.
func (d *ReportData) MaliciousRatio() float64 {
	if d.EventCount == 0 {
		return 0
	}
	return float64(d.MaliciousCount) / float64(d.EventCount)
}
