// Package daemon runs the monitoring session as a background service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/user/netguard/internal/monitor"
	"github.com/user/netguard/internal/util"
)

// Session is the monitoring session the daemon hosts.
type Session interface {
	Run(ctx context.Context) error
	Start() error
	Stop() error
	Refresh(ctx context.Context) error
	Snapshot() monitor.Snapshot
}

// Service is an auxiliary component, such as the web server, that runs
// until its context is cancelled.
type Service func(ctx context.Context) error

// Daemon manages the background service.
type Daemon struct {
	config    *util.Config
	session   Session
	services  []Service
	scheduler *Scheduler
	pidFile   string
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	startTime time.Time
	stopOnce  sync.Once
	stopped   chan struct{}
	mu        sync.RWMutex
}

// New creates a new daemon hosting session.
func New(cfg *util.Config, session Session, services ...Service) (*Daemon, error) {
	if err := util.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config:   cfg,
		session:  session,
		services: services,
		pidFile:  filepath.Join(cfg.DataDir, pidFileName),
		ctx:      ctx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
	}

	d.scheduler = NewScheduler(ctx)

	return d, nil
}

// Start starts the daemon.
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	// Write PID file
	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	util.Info("Daemon starting...")

	// Session loop
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.session.Run(d.ctx); err != nil {
			util.Error("Session loop: %v", err)
		}
	}()

	if d.config.AutoStart {
		if err := d.session.Start(); err != nil {
			return fmt.Errorf("failed to start monitoring: %w", err)
		}
	}

	d.registerJobs()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.scheduler.Run()
	}()

	for _, svc := range d.services {
		d.wg.Add(1)
		go func(run Service) {
			defer d.wg.Done()
			if err := run(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
				util.Error("Service failed: %v", err)
			}
		}(svc)
	}

	// Handle signals
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.handleSignals()
	}()

	util.Info("Daemon started with PID %d", os.Getpid())

	return nil
}

// Wait blocks until the daemon has fully stopped.
func (d *Daemon) Wait() {
	<-d.stopped
}

// Done is closed once shutdown has begun.
func (d *Daemon) Done() <-chan struct{} {
	return d.ctx.Done()
}

// Stop stops the daemon gracefully.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	d.stopOnce.Do(d.shutdown)
	return nil
}

func (d *Daemon) shutdown() {
	util.Info("Daemon stopping...")

	if err := d.session.Stop(); err != nil {
		util.Debug("Stopping monitoring: %v", err)
	}

	d.cancel() // Signal all goroutines to stop

	// Wait for graceful shutdown with timeout
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		util.Info("Daemon stopped gracefully")
	case <-time.After(30 * time.Second):
		util.Warn("Daemon stop timed out")
	}

	d.writeStatus()
	d.removePIDFile()
	close(d.stopped)
}

func (d *Daemon) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		util.Info("Received signal: %v", sig)
		// Stop waits on this goroutine through wg.
		go d.Stop()
	case <-d.ctx.Done():
		return
	}
}

func (d *Daemon) writePIDFile() error {
	pid := os.Getpid()
	return os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)), 0644)
}

func (d *Daemon) removePIDFile() {
	os.Remove(d.pidFile)
}

// IsRunning returns whether the daemon is running.
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// GetStatus returns the daemon status.
func (d *Daemon) GetStatus() *DaemonStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return &DaemonStatus{
		Running:   d.running,
		PID:       os.Getpid(),
		StartTime: d.startTime,
		Uptime:    time.Since(d.startTime),
		Jobs:      d.scheduler.GetJobStatuses(),
	}
}

// DaemonStatus holds the current daemon status.
type DaemonStatus struct {
	Running   bool
	PID       int
	StartTime time.Time
	Uptime    time.Duration
	Jobs      []JobStatus
}
