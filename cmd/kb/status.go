package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline health: log, pending queue, delivery queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		ctx := context.Background()

		segments, err := app.Log.Segments()
		if err != nil {
			return err
		}
		pending, err := app.Store.ListEvents(ctx, model.EventFilter{
			ReviewState: []model.ReviewState{model.ReviewPending},
		})
		if err != nil {
			return err
		}
		queued, err := app.Store.ListUndeliveredEntries(ctx)
		if err != nil {
			return err
		}

		daemonRunning := false
		if _, err := os.Stat(cfg.LockPath()); err == nil {
			daemonRunning = true
		}

		if jsonOutput {
			printJSON(map[string]any{
				"data_dir":          cfg.DataDir,
				"log_segments":      len(segments),
				"pending_review":    len(pending),
				"queued_deliveries": len(queued),
				"daemon_running":    daemonRunning,
			})
			return nil
		}

		fmt.Printf("Data dir:          %s\n", ui.RenderAccent(cfg.DataDir))
		fmt.Printf("Log segments:      %d\n", len(segments))
		fmt.Printf("Pending review:    %d\n", len(pending))
		fmt.Printf("Queued deliveries: %d\n", len(queued))
		if daemonRunning {
			fmt.Printf("Daemon:            running (%s)\n", cfg.LockPath())
		} else {
			fmt.Println("Daemon:            not running")
		}
		return nil
	},
}
