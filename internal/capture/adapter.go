// Package capture turns platform signals (shell wrappers, git hooks,
// filesystem notifications) into raw events and records them. Recording
// never propagates failures to the observed activity: losing telemetry is
// acceptable, breaking the developer's workflow is not.
package capture

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Fato07/knowledge-base/internal/eventlog"
	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/model"
)

// Invocation is the adapter-facing description of one observed action.
// Exactly one arm is set; the At time stamps the observation.
type Invocation struct {
	At      time.Time
	Command *CommandInvocation
	File    *FileChange
	Git     *GitOperation
}

// CommandInvocation describes a completed shell command.
type CommandInvocation struct {
	Command  string
	ExitCode int
	Duration time.Duration
	Dir      string
	Output   string
}

// FileChange describes one filesystem mutation.
type FileChange struct {
	Path   string
	Change model.ChangeKind
}

// GitOperation describes a version-control operation at its completion.
type GitOperation struct {
	CommitHash string
	Branch     string
	Message    string
	Repo       string
}

// Adapter converts an invocation into a raw event. Implementations assign
// the content-derived id so a retried action within the same second does
// not duplicate.
type Adapter interface {
	Observe(inv Invocation) (model.RawEvent, error)
}

// Recorder appends observed events to the event log and announces them on
// the bus. All errors are swallowed and counted.
type Recorder struct {
	log     *eventlog.Log
	bus     events.Publisher
	logger  *slog.Logger
	dropped atomic.Int64
}

// NewRecorder wires a recorder. bus may be a NoopPublisher.
func NewRecorder(log *eventlog.Log, bus events.Publisher, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: log, bus: bus, logger: logger}
}

// Record persists one raw event. It never returns an error: capture
// failures are logged and counted, and the observed action proceeds.
func (r *Recorder) Record(ctx context.Context, event model.RawEvent) {
	if err := r.log.Append(event); err != nil {
		r.dropped.Add(1)
		r.logger.Warn("capture: append failed", "id", event.ID, "err", err)
		return
	}
	if err := r.bus.Publish(ctx, events.TopicEventCaptured, events.EventCaptured{
		ID:     event.ID,
		Source: event.Source,
	}); err != nil {
		// Bus delivery is best-effort; the event is already durable.
		r.logger.Debug("capture: bus publish failed", "id", event.ID, "err", err)
	}
}

// Dropped returns the number of events lost to capture failures.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}
