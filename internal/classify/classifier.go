// Package classify derives categorized, scored events from raw events.
// Classification is pure: a classifier built from one rule set maps a given
// raw event to the same category and importance every time, which is what
// makes reimport idempotent.
package classify

import (
	"fmt"
	"strconv"

	"github.com/Fato07/knowledge-base/internal/config"
	"github.com/Fato07/knowledge-base/internal/model"
)

// Score constants for the ordered rule list.
const (
	scoreAllowedBase   = 5
	scoreErrorBonus    = 3
	scoreOutlierBonus  = 1
	scoreCommit        = 5
	scoreBranch        = 2
	scoreSourceFile    = 3
	scoreOtherFile     = 1
	scorePatternBonus  = 2
	outlierMultiplier  = 10.0
)

// Classifier evaluates raw events against a fixed rule set.
type Classifier struct {
	rules *config.Rules
}

// New builds a classifier over compiled rules.
func New(rules *config.Rules) *Classifier {
	if rules == nil {
		rules = config.DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify maps one raw event to its categorized derivative. It never
// fails: an empty or unrecognizable payload falls back to the source's
// default category at importance 0, so the audit trail stays complete.
func (c *Classifier) Classify(raw model.RawEvent) model.CategorizedEvent {
	out := model.CategorizedEvent{
		ID:          raw.ID,
		RawEventID:  raw.ID,
		Source:      raw.Source,
		Category:    model.DefaultCategory(raw.Source),
		ReviewState: model.ReviewPending,
		ObservedAt:  raw.ObservedAt,
	}

	switch {
	case raw.Payload.Command != nil:
		c.classifyCommand(raw.Payload.Command, &out)
	case raw.Payload.File != nil:
		c.classifyFile(raw.Payload.File, &out)
	case raw.Payload.Git != nil:
		c.classifyGit(raw.Payload.Git, &out)
	default:
		out.Importance = 0
	}

	if raw.Project != nil && raw.Project.Name != "" {
		if out.KeyFacts == nil {
			out.KeyFacts = map[string]string{}
		}
		out.KeyFacts["project"] = raw.Project.Name
		if raw.Project.Type != "" {
			out.KeyFacts["project_type"] = raw.Project.Type
		}
	}

	out.Importance = clamp(out.Importance)
	return out
}

func (c *Classifier) classifyCommand(p *model.CommandPayload, out *model.CategorizedEvent) {
	out.Category = model.CategoryCommandRun
	out.KeyFacts = map[string]string{
		"command":   p.Command,
		"exit_code": strconv.Itoa(p.ExitCode),
		"duration":  fmt.Sprintf("%.0fs", p.Duration),
	}
	if p.Dir != "" {
		out.KeyFacts["dir"] = p.Dir
	}

	// Trivial commands score 0 regardless of any other rule.
	if c.rules.Trivial(p.Command) {
		out.Importance = 0
		return
	}

	score := 0
	if c.rules.Allowed(p.Command) {
		score = scoreAllowedBase
	}
	if p.ExitCode != 0 || c.rules.ErrorOutput(p.Output) {
		score += scoreErrorBonus
	}
	if baseline, ok := c.rules.Baseline(p.Command); ok && baseline > 0 && p.Duration >= baseline*outlierMultiplier {
		score += scoreOutlierBonus
	}
	out.Importance = score
}

func (c *Classifier) classifyFile(p *model.FilePayload, out *model.CategorizedEvent) {
	switch p.Change {
	case model.ChangeCreated:
		out.Category = model.CategoryFileCreated
	case model.ChangeDeleted:
		out.Category = model.CategoryFileDeleted
	default:
		out.Category = model.CategoryFileModified
	}
	out.KeyFacts = map[string]string{
		"path":   p.Path,
		"change": string(p.Change),
	}

	// Generated/build output scores 0 regardless; it never reaches review.
	if c.rules.GeneratedPath(p.Path) {
		out.Importance = 0
		return
	}

	score := scoreOtherFile
	if c.rules.SourcePath(p.Path) {
		score = scoreSourceFile
	}
	// A matching pattern rule wins the category tie toward the most
	// specific value.
	if c.rules.PatternPath(p.Path) {
		out.Category = model.CategoryPatternDetected
		score += scorePatternBonus
	}
	out.Importance = score
}

func (c *Classifier) classifyGit(p *model.GitPayload, out *model.CategorizedEvent) {
	out.KeyFacts = map[string]string{}
	if p.Branch != "" {
		out.KeyFacts["branch"] = p.Branch
	}
	if p.Repo != "" {
		out.KeyFacts["repo"] = p.Repo
	}

	if p.CommitHash != "" {
		out.Category = model.CategoryGitCommit
		out.KeyFacts["hash"] = p.CommitHash
		if p.Message != "" {
			out.KeyFacts["message"] = p.Message
		}
		out.Importance = scoreCommit
		return
	}
	out.Category = model.CategoryGitBranch
	out.Importance = scoreBranch
}

func clamp(score int) int {
	if score < model.MinImportance {
		return model.MinImportance
	}
	if score > model.MaxImportance {
		return model.MaxImportance
	}
	return score
}
