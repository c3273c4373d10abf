package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/netguard/internal/daemon"
	"github.com/user/netguard/internal/util"
	"github.com/user/netguard/internal/web"
)

var (
	foreground   bool
	withWeb      bool
	startWebPort int
	startNow     bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the netguard daemon",
	Long: `Start the netguard daemon in the background.

The daemon hosts a monitoring session, keeps a status file for
'netguard status' and, when auto_refresh_interval is set, periodically
pulls traffic, stats and alerts from the monitoring API.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false,
		"Run in foreground instead of daemonizing")
	startCmd.Flags().BoolVar(&withWeb, "with-web", false,
		"Also start the web dashboard server")
	startCmd.Flags().IntVar(&startWebPort, "web-port", 0,
		"Port for web server (when using --with-web, default from config)")
	startCmd.Flags().BoolVar(&startNow, "monitor", false,
		"Start generating traffic immediately (overrides auto_start)")
}

func runStart(cmd *cobra.Command, args []string) error {
	// Check if already running
	running, pid := daemon.CheckRunning(cfg.DataDir)
	if running {
		fmt.Printf("Daemon is already running (PID %d)\n", pid)
		return nil
	}

	if startWebPort > 0 {
		cfg.WebPort = startWebPort
	}
	if startNow {
		cfg.AutoStart = true
	}

	if foreground {
		return runForeground()
	}

	return runDaemon()
}

func runForeground() error {
	fmt.Println("Starting netguard in foreground mode...")

	st := newStack(cfg, false)
	defer st.Close()

	var services []daemon.Service
	if withWeb {
		srv := web.NewServer(st.session, cfg, st.metrics)
		services = append(services, srv.Start)
		fmt.Printf("Web dashboard: http://localhost:%d\n", cfg.WebPort)
	}

	d, err := daemon.New(cfg, st.session, services...)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Start(); err != nil {
		d.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Println("NetGuard daemon started. Press Ctrl+C to stop.")

	// Wait for daemon to finish
	d.Wait()

	return nil
}

func runDaemon() error {
	// Re-execute self in background
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	// Prepare arguments
	args := []string{"start", "--foreground"}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if withWeb {
		args = append(args, "--with-web", "--web-port", fmt.Sprintf("%d", cfg.WebPort))
	}
	if startNow {
		args = append(args, "--monitor")
	}

	if err := util.EnsureDir(filepath.Dir(cfg.LogFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create log file for daemon output
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	// Start background process
	procAttr := &os.ProcAttr{
		Dir:   "/",
		Env:   os.Environ(),
		Files: []*os.File{nil, logFile, logFile},
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	proc, err := os.StartProcess(executable, append([]string{executable}, args...), procAttr)
	if err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	// Detach from parent
	if err := proc.Release(); err != nil {
		util.Warn("Failed to release process: %v", err)
	}

	fmt.Printf("NetGuard daemon started (PID %d)\n", proc.Pid)
	fmt.Printf("Logs: %s\n", cfg.LogFile)
	if withWeb {
		fmt.Printf("Web dashboard: http://localhost:%d\n", cfg.WebPort)
	}

	return nil
}
