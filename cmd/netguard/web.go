package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/netguard/internal/util"
	"github.com/user/netguard/internal/web"
)

var webPort int

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the web dashboard",
	Long: `Start a lightweight web dashboard over a local monitoring session.

The web server provides:
- A live dashboard with traffic, alerts and statistics
- A JSON API for traffic, stats, alerts and session control
- Prometheus metrics at /metrics
- A downloadable Markdown report

Examples:
  netguard web
  netguard web --port 9090`,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().IntVarP(&webPort, "port", "p", 0, "Web server port (default from config)")
}

func runWeb(cmd *cobra.Command, args []string) error {
	if webPort > 0 {
		cfg.WebPort = webPort
	}

	st := newStack(cfg, false)
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go st.session.Run(ctx)

	if cfg.AutoStart {
		if err := st.session.Start(); err != nil {
			util.Warn("Failed to start monitoring: %v", err)
		}
	}

	fmt.Printf("Starting web server on http://localhost:%d\n", cfg.WebPort)
	fmt.Println("Press Ctrl+C to stop")

	srv := web.NewServer(st.session, cfg, st.metrics)
	err := srv.Start(ctx)

	stop()
	<-st.session.Done()
	return err
}
