// Package summary condenses a window of categorized events into a digest:
// the notable activity, the commits, the commands that failed and were later
// made to pass, and the projects the work touched. It is read-only over the
// event store.
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/store"
)

// Events at or above this importance count as key activities.
const keyActivityMin = 7

// Digest summarizes the events observed in a period.
type Digest struct {
	From           time.Time      `json:"from,omitempty"`
	To             time.Time      `json:"to"`
	Total          int            `json:"total"`
	KeyActivities  []string       `json:"key_activities,omitempty"`
	Commits        []string       `json:"commits,omitempty"`
	ProblemsSolved []Resolution   `json:"problems_solved,omitempty"`
	ByProject      map[string]int `json:"by_project,omitempty"`
}

// Resolution is a command that failed at least once in the window and later
// ran clean: the usual shape of a problem worked through.
type Resolution struct {
	Command  string `json:"command"`
	Failures int    `json:"failures"`
}

// Build reads the window from the store and condenses it.
func Build(ctx context.Context, st store.Store, since time.Time) (*Digest, error) {
	events, err := st.ListEvents(ctx, model.EventFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return Condense(events, since), nil
}

// Condense aggregates the events into a digest. Events may arrive in any
// order; fail-then-pass pairing is done over observation time.
func Condense(events []*model.CategorizedEvent, since time.Time) *Digest {
	d := &Digest{From: since, To: time.Now().UTC(), Total: len(events)}

	ordered := make([]*model.CategorizedEvent, len(events))
	copy(ordered, events)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ObservedAt.Before(ordered[j].ObservedAt)
	})

	failures := map[string]int{}
	solved := map[string]bool{}
	for _, e := range ordered {
		if project := e.Fact("project"); project != "" {
			if d.ByProject == nil {
				d.ByProject = map[string]int{}
			}
			d.ByProject[project]++
		}
		if e.Importance >= keyActivityMin {
			d.KeyActivities = append(d.KeyActivities, activityLine(e))
		}
		if e.Category == model.CategoryGitCommit {
			if msg := e.Fact("message"); msg != "" {
				d.Commits = append(d.Commits, msg)
			}
		}
		if e.Category != model.CategoryCommandRun {
			continue
		}
		cmd := e.Fact("command")
		if cmd == "" {
			continue
		}
		if e.Fact("exit_code") != "0" {
			failures[cmd]++
			continue
		}
		if n := failures[cmd]; n > 0 && !solved[cmd] {
			solved[cmd] = true
			d.ProblemsSolved = append(d.ProblemsSolved, Resolution{Command: cmd, Failures: n})
		}
	}
	return d
}

func activityLine(e *model.CategorizedEvent) string {
	switch e.Category {
	case model.CategoryGitCommit:
		return "commit: " + e.Fact("message")
	case model.CategoryCommandRun:
		if e.Fact("exit_code") != "0" {
			return fmt.Sprintf("%s (exit %s)", e.Fact("command"), e.Fact("exit_code"))
		}
		return e.Fact("command")
	default:
		return fmt.Sprintf("%s: %s", e.Category, e.Fact("path"))
	}
}

// Render formats a digest for the terminal.
func Render(d *Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d events", d.Total)
	if !d.From.IsZero() {
		fmt.Fprintf(&b, " since %s", d.From.Format("2006-01-02 15:04"))
	}
	b.WriteString("\n")

	if len(d.KeyActivities) > 0 {
		b.WriteString("\nKey activities:\n")
		for _, line := range d.KeyActivities {
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}
	if len(d.Commits) > 0 {
		b.WriteString("\nCommits:\n")
		for _, msg := range d.Commits {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
	}
	if len(d.ProblemsSolved) > 0 {
		b.WriteString("\nProblems solved:\n")
		for _, r := range d.ProblemsSolved {
			fmt.Fprintf(&b, "  - %s (after %d failed runs)\n", r.Command, r.Failures)
		}
	}
	if len(d.ByProject) > 0 {
		b.WriteString("\nBy project:\n")
		projects := make([]string, 0, len(d.ByProject))
		for name := range d.ByProject {
			projects = append(projects, name)
		}
		sort.Strings(projects)
		for _, name := range projects {
			fmt.Fprintf(&b, "  %-20s %d\n", name, d.ByProject[name])
		}
	}
	return b.String()
}
