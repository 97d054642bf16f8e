package capture

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Fato07/knowledge-base/internal/eventlog"
	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestShellAdapterObserve(t *testing.T) {
	a := NewShellAdapter()
	at := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	raw, err := a.Observe(Invocation{
		At: at,
		Command: &CommandInvocation{
			Command:  "  docker build .  ",
			ExitCode: 1,
			Duration: 45 * time.Second,
			Dir:      "/src/app",
			Output:   "error: failed",
		},
	})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if raw.Source != model.SourceShellCommand {
		t.Errorf("source = %s", raw.Source)
	}
	cmd := raw.Payload.Command
	if cmd == nil {
		t.Fatal("command payload missing")
	}
	if cmd.Command != "docker build ." {
		t.Errorf("command = %q (should be trimmed)", cmd.Command)
	}
	if cmd.ExitCode != 1 || cmd.Duration != 45.0 {
		t.Errorf("exit=%d duration=%v", cmd.ExitCode, cmd.Duration)
	}
	if err := raw.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// Deterministic id for a retry within the same second.
	again, _ := a.Observe(Invocation{
		At: at.Add(200 * time.Millisecond),
		Command: &CommandInvocation{
			Command: "docker build .", ExitCode: 1,
			Duration: 45 * time.Second, Dir: "/src/app",
		},
	})
	if raw.ID != again.ID {
		t.Errorf("retry in same second should share id: %s vs %s", raw.ID, again.ID)
	}
}

func TestShellAdapterTruncatesOutput(t *testing.T) {
	a := NewShellAdapter()
	raw, err := a.Observe(Invocation{
		Command: &CommandInvocation{
			Command: "make",
			Output:  strings.Repeat("x", maxOutputBytes*2),
		},
	})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if len(raw.Payload.Command.Output) != maxOutputBytes {
		t.Errorf("output length = %d, want %d", len(raw.Payload.Command.Output), maxOutputBytes)
	}
}

func TestShellAdapterRejectsWrongArm(t *testing.T) {
	a := NewShellAdapter()
	if _, err := a.Observe(Invocation{File: &FileChange{Path: "x"}}); err == nil {
		t.Fatal("expected error for missing command arm")
	}
}

func TestGitAdapterObserve(t *testing.T) {
	a := NewGitAdapter()
	at := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	raw, err := a.Observe(Invocation{
		At: at,
		Git: &GitOperation{
			CommitHash: "a1b2c3d",
			Branch:     "main",
			Message:    "fix importer resume\n",
			Repo:       "/src/app",
		},
	})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if raw.Source != model.SourceVersionControl {
		t.Errorf("source = %s", raw.Source)
	}
	if raw.Payload.Git.Message != "fix importer resume" {
		t.Errorf("message = %q (should be trimmed)", raw.Payload.Git.Message)
	}
	if err := raw.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFSAdapterObserve(t *testing.T) {
	a := NewFSAdapter()
	raw, err := a.Observe(Invocation{
		File: &FileChange{Path: "src/main.go", Change: model.ChangeModified},
	})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if raw.Source != model.SourceFilesystem {
		t.Errorf("source = %s", raw.Source)
	}
	if raw.Payload.File.Change != model.ChangeModified {
		t.Errorf("change = %s", raw.Payload.File.Change)
	}
}

func TestRecorderPersistsAndNeverFails(t *testing.T) {
	log, err := eventlog.New(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(log, &events.NoopPublisher{}, testLogger())

	a := NewShellAdapter()
	at := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	raw, err := a.Observe(Invocation{
		At:      at,
		Command: &CommandInvocation{Command: "go test ./...", Duration: 3 * time.Second},
	})
	if err != nil {
		t.Fatal(err)
	}
	rec.Record(context.Background(), raw)

	segments, err := log.Segments()
	if err != nil || len(segments) != 1 {
		t.Fatalf("segments = %v, %v", segments, err)
	}
	got, _, err := log.Read(segments[0], 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("read = %d events, %v", len(got), err)
	}
	if got[0].ID != raw.ID {
		t.Errorf("stored id %s, want %s", got[0].ID, raw.ID)
	}
	if rec.Dropped() != 0 {
		t.Errorf("Dropped = %d", rec.Dropped())
	}
}

func TestRecorderSwallowsInvalidEvent(t *testing.T) {
	log, err := eventlog.New(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(log, &events.NoopPublisher{}, testLogger())

	// Invalid event: no id, no payload. Record must not panic or error.
	rec.Record(context.Background(), model.RawEvent{Source: model.SourceShellCommand})

	if rec.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", rec.Dropped())
	}
}

func TestWatcherSkip(t *testing.T) {
	w := NewWatcher(nil, nil, "/home/dev/.local/state/kb", testLogger())
	for path, want := range map[string]bool{
		"/home/dev/.local/state/kb/log/events.jsonl": true,
		"/src/app/.git/objects/ab":                   true,
		"/src/app/node_modules/pkg/index.js":         true,
		"/src/app/internal/main.go":                  false,
	} {
		if got := w.skip(path); got != want {
			t.Errorf("skip(%q) = %v, want %v", path, got, want)
		}
	}
}
