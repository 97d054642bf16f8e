package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored events by category, importance, and state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		var since time.Time
		if window, _ := cmd.Flags().GetDuration("since"); window > 0 {
			since = time.Now().UTC().Add(-window)
		}

		stats, err := app.Store.Statistics(context.Background(), since)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(stats)
			return nil
		}
		printStats(stats)
		return nil
	},
}

func init() {
	statsCmd.Flags().Duration("since", 0, "only events observed within this window (e.g. 168h)")
}
