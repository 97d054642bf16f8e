package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Source identifies which adapter observed a raw event.
type Source string

const (
	SourceVersionControl Source = "version_control"
	SourceShellCommand   Source = "shell_command"
	SourceFilesystem     Source = "filesystem"
)

// String returns the string representation of the source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks whether the source is a known value.
func (s Source) IsValid() bool {
	switch s {
	case SourceVersionControl, SourceShellCommand, SourceFilesystem:
		return true
	}
	return false
}

// ChangeKind is the kind of filesystem mutation observed by the watcher.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// IsValid checks whether the change kind is a known value.
func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeCreated, ChangeModified, ChangeDeleted:
		return true
	}
	return false
}

// CommandPayload carries the fields captured for a shell command invocation.
type CommandPayload struct {
	Command  string  `json:"command"`
	ExitCode int     `json:"exit_code"`
	Duration float64 `json:"duration_seconds"`
	Dir      string  `json:"dir,omitempty"`
	Output   string  `json:"output,omitempty"`
}

// FilePayload carries the fields captured for a filesystem mutation.
type FilePayload struct {
	Path   string     `json:"path"`
	Change ChangeKind `json:"change"`
}

// GitPayload carries the fields captured for a version-control operation.
// CommitHash is empty for branch-only events.
type GitPayload struct {
	CommitHash string `json:"commit_hash,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Message    string `json:"message,omitempty"`
	Repo       string `json:"repo,omitempty"`
}

// Payload is the closed union of per-source payload shapes. Exactly one
// field is set, matching the RawEvent source.
type Payload struct {
	Command *CommandPayload `json:"command,omitempty"`
	File    *FilePayload    `json:"file,omitempty"`
	Git     *GitPayload     `json:"git,omitempty"`
}

// ProjectContext identifies the project an action was observed in, detected
// at capture time from repository and build markers.
type ProjectContext struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Root string `json:"root,omitempty"`
}

// RawEvent is the immutable record of one observed developer action.
// Created exactly once by an adapter, appended to the event log, never
// mutated or deleted afterwards.
//
// Project is advisory context and takes no part in ComputeID: the id of an
// action does not change when detection fails or markers appear later.
type RawEvent struct {
	ID         string          `json:"id"`
	Source     Source          `json:"source"`
	ObservedAt time.Time       `json:"observed_at"`
	Payload    Payload         `json:"payload"`
	Project    *ProjectContext `json:"project,omitempty"`
}

// Validate reports whether the event is internally consistent: a known
// source with the matching payload arm set.
func (e *RawEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("raw event: missing id")
	}
	if !e.Source.IsValid() {
		return fmt.Errorf("raw event %s: unknown source %q", e.ID, e.Source)
	}
	switch e.Source {
	case SourceShellCommand:
		if e.Payload.Command == nil {
			return fmt.Errorf("raw event %s: shell_command without command payload", e.ID)
		}
	case SourceFilesystem:
		if e.Payload.File == nil {
			return fmt.Errorf("raw event %s: filesystem without file payload", e.ID)
		}
	case SourceVersionControl:
		if e.Payload.Git == nil {
			return fmt.Errorf("raw event %s: version_control without git payload", e.ID)
		}
	}
	return nil
}

// ComputeID derives the content address of an event from its source, its
// capture second, and a payload summary. The same action retried within the
// same second collapses to one id; rapid identical commands inside one
// second can collide, which is an accepted limitation of the scheme.
func ComputeID(source Source, observedAt time.Time, summary string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%d\n%s", source, observedAt.Unix(), summary)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Summary returns the payload string fed into ComputeID.
func (p Payload) Summary() string {
	switch {
	case p.Command != nil:
		return p.Command.Command + "\n" + p.Command.Dir
	case p.File != nil:
		return p.File.Path + "\n" + string(p.File.Change)
	case p.Git != nil:
		return p.Git.CommitHash + "\n" + p.Git.Branch + "\n" + p.Git.Message
	}
	return ""
}
