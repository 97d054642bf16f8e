package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/curate"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Reattempt delivery of queued knowledge entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		sink, err := curate.NewMarkdownSink(cfg.KnowledgeDir)
		if err != nil {
			return err
		}
		curator := curate.New(app.Store, sink, app.Bus, logger)

		delivered, remaining, err := curator.Retry(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]int{"delivered": delivered, "remaining": remaining})
			return nil
		}
		fmt.Printf("Delivered %d entries, %d still queued\n", delivered, remaining)
		return nil
	},
}
