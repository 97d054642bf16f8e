package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List categorized events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		events, err := app.Store.ListEvents(context.Background(), filter)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(events)
			return nil
		}
		printEventTable(events)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show one event in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		event, err := app.Store.GetEvent(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(event)
			return nil
		}
		printEventDetail(event)
		return nil
	},
}

func filterFromFlags(cmd *cobra.Command) (model.EventFilter, error) {
	var filter model.EventFilter

	if source, _ := cmd.Flags().GetString("source"); source != "" {
		s := model.Source(source)
		if !s.IsValid() {
			return filter, fmt.Errorf("unknown source %q", source)
		}
		filter.Source = []model.Source{s}
	}
	if category, _ := cmd.Flags().GetString("category"); category != "" {
		c := model.Category(category)
		if !c.IsValid() {
			return filter, fmt.Errorf("unknown category %q", category)
		}
		filter.Category = []model.Category{c}
	}
	if state, _ := cmd.Flags().GetString("state"); state != "" {
		s := model.ReviewState(state)
		if !s.IsValid() {
			return filter, fmt.Errorf("unknown review state %q", state)
		}
		filter.ReviewState = []model.ReviewState{s}
	}

	filter.MinImportance, _ = cmd.Flags().GetInt("min-importance")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		filter.Since = time.Now().UTC().Add(-since)
	}
	return filter, nil
}

func init() {
	listCmd.Flags().String("source", "", "filter by source (version_control, shell_command, filesystem)")
	listCmd.Flags().String("category", "", "filter by category")
	listCmd.Flags().String("state", "", "filter by review state")
	listCmd.Flags().Int("min-importance", 0, "minimum importance score")
	listCmd.Flags().Duration("since", 0, "only events observed within this window (e.g. 24h)")
	listCmd.Flags().Int("limit", 50, "maximum events to list (0 = all)")

	rootCmd.AddCommand(showCmd)
}
