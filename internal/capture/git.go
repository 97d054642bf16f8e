package capture

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
)

// GitAdapter turns version-control operations into raw events. Hook
// installation is external wiring; the post-commit and post-checkout hooks
// simply invoke the CLI, which reads repository state via the git binary.
type GitAdapter struct {
	projects *ProjectDetector
}

// NewGitAdapter returns a version-control adapter.
func NewGitAdapter() *GitAdapter {
	return &GitAdapter{projects: NewProjectDetector()}
}

// Observe builds the raw event for a git operation.
func (a *GitAdapter) Observe(inv Invocation) (model.RawEvent, error) {
	if inv.Git == nil {
		return model.RawEvent{}, fmt.Errorf("git adapter: invocation has no git operation")
	}
	at := inv.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	payload := model.Payload{Git: &model.GitPayload{
		CommitHash: inv.Git.CommitHash,
		Branch:     inv.Git.Branch,
		Message:    strings.TrimSpace(inv.Git.Message),
		Repo:       inv.Git.Repo,
	}}

	return model.RawEvent{
		ID:         model.ComputeID(model.SourceVersionControl, at, payload.Summary()),
		Source:     model.SourceVersionControl,
		ObservedAt: at,
		Payload:    payload,
		Project:    a.projects.Detect(inv.Git.Repo),
	}, nil
}

// HeadCommit reads the repository HEAD into a git operation, for use from a
// post-commit hook.
func (a *GitAdapter) HeadCommit(repoDir string) (GitOperation, error) {
	hash, err := gitOutput(repoDir, "rev-parse", "HEAD")
	if err != nil {
		return GitOperation{}, fmt.Errorf("read HEAD: %w", err)
	}
	branch, err := gitOutput(repoDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return GitOperation{}, fmt.Errorf("read branch: %w", err)
	}
	message, err := gitOutput(repoDir, "log", "-1", "--format=%s")
	if err != nil {
		return GitOperation{}, fmt.Errorf("read message: %w", err)
	}
	return GitOperation{
		CommitHash: hash,
		Branch:     branch,
		Message:    message,
		Repo:       repoDir,
	}, nil
}

// CurrentBranch reads the checked-out branch, for use from a post-checkout
// hook. The returned operation has no commit hash, which classifies it as a
// branch event.
func (a *GitAdapter) CurrentBranch(repoDir string) (GitOperation, error) {
	branch, err := gitOutput(repoDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return GitOperation{}, fmt.Errorf("read branch: %w", err)
	}
	return GitOperation{Branch: branch, Repo: repoDir}, nil
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
