package daemon

import (
	"context"

	"github.com/user/netguard/internal/util"
)

// registerJobs registers the periodic jobs with the scheduler.
func (d *Daemon) registerJobs() {
	// Status file for `netguard status`
	d.scheduler.AddJob(&Job{
		Name:     "status_file",
		Interval: d.config.StatusInterval,
		Run:      d.runStatusFile,
	})

	// Periodic pull from the upstream API; disabled when the interval is 0
	d.scheduler.AddJob(&Job{
		Name:     "auto_refresh",
		Interval: d.config.AutoRefreshInterval,
		Run:      d.runAutoRefresh,
	})
}

func (d *Daemon) runStatusFile(ctx context.Context) error {
	return WriteStatusFile(d.config.DataDir, d.GetStatus(), d.session.Snapshot().Status())
}

func (d *Daemon) runAutoRefresh(ctx context.Context) error {
	if err := d.session.Refresh(ctx); err != nil {
		return err
	}

	snap := d.session.Snapshot()
	util.Info("Refreshed: %d events, %d alerts, threat level %s",
		len(snap.Events), len(snap.Alerts), snap.Stats.ThreatLevel)

	return nil
}

func (d *Daemon) writeStatus() {
	if err := d.runStatusFile(d.ctx); err != nil {
		util.Warn("Failed to write status file: %v", err)
	}
}
