package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/user/netguard/internal/tui"
	"github.com/user/netguard/internal/util"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal dashboard",
	Long: `Launch an interactive terminal dashboard over a local monitoring session.

The dashboard shows:
- Session state and tick count
- Total traffic, connections, alerts and threat level
- The most recent alerts
- Live traffic

Press 's' to start or stop monitoring, 'r' to refresh from the API, 'q' to quit.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	st := newStack(cfg, true)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go st.session.Run(ctx)
	defer func() {
		cancel()
		<-st.session.Done()
	}()

	if cfg.AutoStart {
		if err := st.session.Start(); err != nil {
			util.Warn("Failed to start monitoring: %v", err)
		}
	}

	app := tui.NewApp(st.session, st.notes.C(), cfg)
	return app.Run()
}
