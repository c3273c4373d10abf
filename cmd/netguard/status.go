package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/user/netguard/internal/daemon"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  "Show the current status of the netguard daemon and its monitoring session.",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status file as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("86"))

	runningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")).
		Bold(true)

	stoppedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	// Check daemon status
	running, pid := daemon.CheckRunning(cfg.DataDir)
	sf, sfErr := daemon.ReadStatusFile(cfg.DataDir)

	if statusJSON {
		if sfErr != nil {
			return fmt.Errorf("no status file: %w", sfErr)
		}
		sf.Running = running
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sf)
	}

	fmt.Println(titleStyle.Render("NetGuard Status"))
	fmt.Println()

	// Daemon status
	fmt.Print(labelStyle.Render("Daemon: "))
	if running {
		fmt.Println(runningStyle.Render(fmt.Sprintf("Running (PID %d)", pid)))
	} else {
		fmt.Println(stoppedStyle.Render("Stopped"))
	}

	// The status file outlives the daemon, so it is shown either way.
	if sfErr != nil {
		return nil
	}

	fmt.Print(labelStyle.Render("Started: "))
	fmt.Println(valueStyle.Render(sf.StartTime))

	fmt.Print(labelStyle.Render("Uptime: "))
	fmt.Println(valueStyle.Render(sf.Uptime))

	fmt.Print(labelStyle.Render("Updated: "))
	fmt.Println(valueStyle.Render(sf.UpdatedAt))

	mon := sf.Monitor
	fmt.Println()
	fmt.Println(titleStyle.Render("Monitoring"))
	fmt.Printf("  %s %s\n", labelStyle.Render("State:"), valueStyle.Render(mon.State))
	fmt.Printf("  %s %s\n", labelStyle.Render("Ticks:"), valueStyle.Render(fmt.Sprintf("%d", mon.Ticks)))
	fmt.Printf("  %s %s\n", labelStyle.Render("Events:"), valueStyle.Render(fmt.Sprintf("%d", mon.Events)))
	fmt.Printf("  %s %s\n", labelStyle.Render("Alerts:"), valueStyle.Render(fmt.Sprintf("%d", mon.Alerts)))
	fmt.Printf("  %s %s\n", labelStyle.Render("Threat level:"), valueStyle.Render(string(mon.ThreatLevel)))
	if mon.LastError != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("Last error:"), stoppedStyle.Render(mon.LastError))
	}

	if len(sf.Jobs) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("Jobs"))

		for _, job := range sf.Jobs {
			statusStr := "idle"
			if job.Running {
				statusStr = "running"
			}
			fmt.Printf("  %s: %s (runs: %d, last: %s, errors: %d)\n",
				labelStyle.Render(job.Name),
				valueStyle.Render(statusStr),
				job.Runs,
				job.LastRun.Format("15:04:05"),
				job.ErrorCount)
		}
	}

	return nil
}
