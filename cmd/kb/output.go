package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func eventSummary(e *model.CategorizedEvent) string {
	switch e.Category {
	case model.CategoryGitCommit:
		return e.Fact("message")
	case model.CategoryGitBranch:
		return e.Fact("branch")
	case model.CategoryCommandRun:
		return e.Fact("command")
	default:
		return e.Fact("path")
	}
}

func printEventTable(events []*model.CategorizedEvent) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tCATEGORY\tSTATE\tOBSERVED\tSUMMARY")
	for _, e := range events {
		summary := eventSummary(e)
		if len(summary) > 60 {
			summary = summary[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ui.RenderAccent(e.ID),
			ui.RenderImportance(e.Importance),
			e.Category,
			ui.RenderState(e.ReviewState),
			e.ObservedAt.Local().Format("2006-01-02 15:04"),
			summary,
		)
	}
	w.Flush()
	fmt.Printf("\n%d events\n", len(events))
}

func printEventDetail(e *model.CategorizedEvent) {
	fmt.Printf("ID:         %s\n", ui.RenderAccent(e.ID))
	fmt.Printf("Source:     %s\n", e.Source)
	fmt.Printf("Category:   %s\n", e.Category)
	fmt.Printf("Importance: %s\n", ui.RenderImportance(e.Importance))
	fmt.Printf("State:      %s\n", ui.RenderState(e.ReviewState))
	fmt.Printf("Observed:   %s\n", e.ObservedAt.Local().Format("2006-01-02 15:04:05"))
	for _, key := range []string{"command", "exit_code", "duration", "dir", "hash", "branch", "message", "repo", "path", "change"} {
		if v := e.Fact(key); v != "" {
			fmt.Printf("  %-10s%s\n", key+":", v)
		}
	}
}

func printStats(stats *model.Stats) {
	fmt.Printf("Total events: %d\n", stats.Total)
	if !stats.PeriodStart.IsZero() {
		fmt.Printf("Since:        %s\n", stats.PeriodStart.Local().Format("2006-01-02 15:04"))
	}

	fmt.Println("\nBy importance:")
	for _, bucket := range []model.ImportanceBucket{model.BucketHigh, model.BucketMedium, model.BucketLow} {
		fmt.Printf("  %-8s%d\n", bucket, stats.ByBucket[bucket])
	}

	fmt.Println("\nBy category:")
	for _, cat := range []model.Category{
		model.CategoryGitCommit, model.CategoryGitBranch, model.CategoryCommandRun,
		model.CategoryFileCreated, model.CategoryFileModified, model.CategoryFileDeleted,
		model.CategoryPatternDetected,
	} {
		if n := stats.ByCategory[cat]; n > 0 {
			fmt.Printf("  %-18s%d\n", cat, n)
		}
	}

	fmt.Println("\nBy review state:")
	for _, state := range []model.ReviewState{
		model.ReviewPending, model.ReviewApproved, model.ReviewEdited, model.ReviewSkipped,
	} {
		fmt.Printf("  %-10s%d\n", state, stats.ByState[state])
	}
}
