package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/summary"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Digest recent activity: key events, commits, problems solved",
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

		digest, err := summary.Build(context.Background(), app.Store, since)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(digest)
			return nil
		}
		fmt.Print(summary.Render(digest))
		return nil
	},
}

func init() {
	summaryCmd.Flags().Duration("since", 24*time.Hour, "window to summarize (e.g. 168h)")
}
