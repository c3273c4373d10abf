package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/user/netguard/internal/client"
	"github.com/user/netguard/internal/daemon"
	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/monitor"
	"github.com/user/netguard/internal/report"
	"github.com/user/netguard/internal/util"
)

// topTalkerCount is how many sources the stats endpoint ranks.
const topTalkerCount = 5

// Handlers contains HTTP handlers.
type Handlers struct {
	monitor Monitor
	config  *util.Config
}

// NewHandlers creates new handlers.
func NewHandlers(mon Monitor, cfg *util.Config) *Handlers {
	return &Handlers{
		monitor: mon,
		config:  cfg,
	}
}

// Dashboard serves the main dashboard page.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := h.getDashboardData()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl := getDashboardTemplate()
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// APIGetTraffic returns the rolling traffic buffer.
func (h *Handlers) APIGetTraffic(w http.ResponseWriter, r *http.Request) {
	snap := h.monitor.Snapshot()
	writeJSON(w, model.TrafficResponse{Data: nonNil(snap.Events)})
}

// APIGetStats returns the aggregate statistics.
func (h *Handlers) APIGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.monitor.Snapshot()
	stats := snap.Stats
	if len(stats.TopTalkers) == 0 {
		stats.TopTalkers = monitor.TopTalkers(snap.Events, topTalkerCount)
	}
	writeJSON(w, stats)
}

// APIGetAlerts returns the recent alerts.
func (h *Handlers) APIGetAlerts(w http.ResponseWriter, r *http.Request) {
	snap := h.monitor.Snapshot()
	writeJSON(w, model.AlertsResponse{Alerts: nonNil(snap.Alerts)})
}

// APIGetStatus returns the session and daemon status.
func (h *Handlers) APIGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.status())
}

// APIStart starts monitoring.
func (h *Handlers) APIStart(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Start(); err != nil {
		writeError(w, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.status())
}

// APIStop stops monitoring.
func (h *Handlers) APIStop(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Stop(); err != nil {
		writeError(w, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.status())
}

// APIRefresh reloads data from the upstream API.
func (h *Handlers) APIRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Refresh(r.Context()); err != nil {
		status := http.StatusInternalServerError
		switch {
		case client.IsFetchFailure(err):
			status = http.StatusBadGateway
		case errors.Is(err, monitor.ErrNoFetcher), errors.Is(err, monitor.ErrSessionClosed):
			status = http.StatusServiceUnavailable
		}
		writeError(w, err, status)
		return
	}
	writeJSON(w, h.status())
}

// DownloadReport generates and downloads a report of the live session.
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	data := report.FromSnapshot(h.monitor.Snapshot(), "live session")
	content := report.FormatMarkdown(data)

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=netguard_report.md")
	w.Write([]byte(content))
}

type statusResponse struct {
	model.MonitorStatus
	DaemonRunning bool `json:"daemon_running"`
	PID           int  `json:"pid,omitempty"`
}

func (h *Handlers) status() statusResponse {
	running, pid := daemon.CheckRunning(h.config.DataDir)
	return statusResponse{
		MonitorStatus: h.monitor.Snapshot().Status(),
		DaemonRunning: running,
		PID:           pid,
	}
}

type dashboardData struct {
	Status      model.MonitorStatus
	Stats       model.NetworkStats
	Events      []model.TrafficEvent
	Alerts      []model.Alert
	TopTalkers  []model.TopTalker
	GeneratedAt string
	Refresh     int
}

func (h *Handlers) getDashboardData() dashboardData {
	snap := h.monitor.Snapshot()

	refresh := int(h.config.TickInterval / time.Second)
	if refresh < 1 {
		refresh = 1
	}

	return dashboardData{
		Status:      snap.Status(),
		Stats:       snap.Stats,
		Events:      snap.Events,
		Alerts:      snap.Alerts,
		TopTalkers:  monitor.TopTalkers(snap.Events, topTalkerCount),
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Refresh:     refresh,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
