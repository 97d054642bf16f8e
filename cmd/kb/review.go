package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/config"
	"github.com/Fato07/knowledge-base/internal/curate"
	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/review"
	"github.com/Fato07/knowledge-base/internal/ui"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Walk through pending events and decide each one",
	Long: `Review presents pending events, highest importance first. For each
event: approve it into the knowledge base, edit the entry text before
approving, or skip it. Quitting leaves the rest pending.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsInteractive() {
			return fmt.Errorf("review needs an interactive terminal")
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		rules, err := config.LoadRules(cfg.RulesPath)
		if err != nil {
			return err
		}
		sink, err := curate.NewMarkdownSink(cfg.KnowledgeDir)
		if err != nil {
			return err
		}
		curator := curate.New(app.Store, sink, app.Bus, logger)

		// Flush any entries left queued by earlier failed deliveries before
		// adding new ones.
		if delivered, _, err := curator.Retry(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: retrying queued entries: %v\n", err)
		} else if delivered > 0 {
			fmt.Printf("Delivered %d previously queued entries\n", delivered)
		}

		minImportance := rules.MinImportance
		if cmd.Flags().Changed("min-importance") {
			minImportance, _ = cmd.Flags().GetInt("min-importance")
		}
		revisit, _ := cmd.Flags().GetBool("revisit-skipped")
		reviewer, _ := cmd.Flags().GetString("reviewer")

		opts := []review.Option{
			review.WithMinImportance(minImportance),
			review.WithReviewer(reviewer),
		}
		if revisit {
			opts = append(opts, review.WithRevisitSkipped())
		}

		session := review.NewSession(app.Store, curator,
			&terminalPrompter{in: bufio.NewReader(os.Stdin)},
			app.Bus, logger, opts...)

		summary, err := session.Run(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(summary)
			return nil
		}
		fmt.Printf("\nReviewed %d events: %d approved, %d edited, %d skipped",
			summary.Presented, summary.Approved, summary.Edited, summary.Skipped)
		if summary.Remaining > 0 {
			fmt.Printf(" (%d left pending)", summary.Remaining)
		}
		fmt.Println()
		return nil
	},
}

// terminalPrompter reads review decisions from stdin.
type terminalPrompter struct {
	in *bufio.Reader
}

func (p *terminalPrompter) Prompt(event *model.CategorizedEvent) (model.Outcome, string, error) {
	fmt.Println()
	printEventDetail(event)

	for {
		fmt.Print(ui.RenderMuted("[a]pprove  [e]dit  [s]kip  [q]uit > "))
		line, err := p.in.ReadString('\n')
		if err != nil {
			return "", "", review.ErrEndSession
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve":
			return model.OutcomeApproved, "", nil
		case "e", "edit":
			text, err := p.readEdit()
			if err != nil {
				return "", "", err
			}
			return model.OutcomeEdited, text, nil
		case "s", "skip":
			return model.OutcomeSkipped, "", nil
		case "q", "quit":
			return "", "", review.ErrEndSession
		default:
			fmt.Println("unrecognized choice")
		}
	}
}

// readEdit collects replacement entry text, terminated by a lone "." line.
func (p *terminalPrompter) readEdit() (string, error) {
	fmt.Println(ui.RenderMuted("Enter entry text, end with a single '.' line:"))
	var lines []string
	for {
		line, err := p.in.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\n")
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func init() {
	reviewCmd.Flags().Int("min-importance", 0, "override the rules-file importance threshold")
	reviewCmd.Flags().Bool("revisit-skipped", false, "review previously skipped events instead")
	reviewCmd.Flags().String("reviewer", defaultReviewer(), "name recorded on decisions")
}
