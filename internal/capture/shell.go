package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
)

// Command output is truncated before capture so a noisy build cannot bloat
// the event log.
const maxOutputBytes = 4096

// ShellAdapter turns completed command invocations into raw events. The
// shell-level interception (wrapper function, prompt hook) is external
// wiring; this adapter only sees the finished invocation.
type ShellAdapter struct {
	projects *ProjectDetector
}

// NewShellAdapter returns a shell command adapter.
func NewShellAdapter() *ShellAdapter {
	return &ShellAdapter{projects: NewProjectDetector()}
}

// Observe builds the raw event for a completed command.
func (a *ShellAdapter) Observe(inv Invocation) (model.RawEvent, error) {
	if inv.Command == nil {
		return model.RawEvent{}, fmt.Errorf("shell adapter: invocation has no command")
	}
	at := inv.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	output := inv.Command.Output
	if len(output) > maxOutputBytes {
		output = output[:maxOutputBytes]
	}

	payload := model.Payload{Command: &model.CommandPayload{
		Command:  strings.TrimSpace(inv.Command.Command),
		ExitCode: inv.Command.ExitCode,
		Duration: inv.Command.Duration.Seconds(),
		Dir:      inv.Command.Dir,
		Output:   output,
	}}

	return model.RawEvent{
		ID:         model.ComputeID(model.SourceShellCommand, at, payload.Summary()),
		Source:     model.SourceShellCommand,
		ObservedAt: at,
		Payload:    payload,
		Project:    a.projects.Detect(inv.Command.Dir),
	}, nil
}
