package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/user/netguard/internal/model"
)

const (
	pidFileName    = "netguard.pid"
	statusFileName = "status.json"
)

// ErrNotRunning is returned by SendStop when no daemon is alive.
var ErrNotRunning = errors.New("daemon is not running")

// CheckRunning checks if the daemon is already running.
func CheckRunning(dataDir string) (bool, int) {
	data, err := os.ReadFile(filepath.Join(dataDir, pidFileName))
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}

	// Signal 0 probes for existence. EPERM means the process exists but
	// belongs to someone else.
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return false, 0
	}

	return true, pid
}

// SendStop asks the running daemon to shut down.
func SendStop(dataDir string) error {
	running, pid := CheckRunning(dataDir)
	if !running {
		return ErrNotRunning
	}

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}

	return nil
}

// StatusFile holds serialized daemon status.
type StatusFile struct {
	Running   bool                `json:"running"`
	PID       int                 `json:"pid"`
	StartTime string              `json:"start_time"`
	Uptime    string              `json:"uptime"`
	UpdatedAt string              `json:"updated_at"`
	Monitor   model.MonitorStatus `json:"monitor"`
	Jobs      []JobStatus         `json:"jobs"`
}

// WriteStatusFile writes the daemon status to a file.
func WriteStatusFile(dataDir string, status *DaemonStatus, mon model.MonitorStatus) error {
	sf := StatusFile{
		Running:   status.Running,
		PID:       status.PID,
		StartTime: status.StartTime.Format("2006-01-02 15:04:05"),
		Uptime:    status.Uptime.Round(time.Second).String(),
		UpdatedAt: status.StartTime.Add(status.Uptime).Format("2006-01-02 15:04:05"),
		Monitor:   mon,
		Jobs:      status.Jobs,
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so readers never see a partial file.
	path := filepath.Join(dataDir, statusFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadStatusFile reads the daemon status from a file.
func ReadStatusFile(dataDir string) (*StatusFile, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, statusFileName))
	if err != nil {
		return nil, err
	}

	var sf StatusFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}

	return &sf, nil
}
