package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/classify"
	"github.com/Fato07/knowledge-base/internal/config"
	"github.com/Fato07/knowledge-base/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Classify new log events into the event store",
	Long: `Import replays event-log segments from their high-water marks, scores
each raw event, and stores the result. Running it twice is safe: events
already imported are skipped as duplicates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		rules, err := config.LoadRules(cfg.RulesPath)
		if err != nil {
			return err
		}

		imp := importer.New(app.Log, app.Store, classify.New(rules), app.Bus, logger)
		res, err := imp.ImportAll(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(res)
			return nil
		}
		fmt.Printf("Imported %d events (%d duplicates skipped)\n", res.Added, res.SkippedDuplicate)
		return nil
	},
}
