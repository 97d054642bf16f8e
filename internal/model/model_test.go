package model

import (
	"testing"
	"time"
)

func TestSourceIsValid(t *testing.T) {
	for _, s := range []Source{SourceVersionControl, SourceShellCommand, SourceFilesystem} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Source("editor").IsValid() {
		t.Error("unknown source should be invalid")
	}
}

func TestComputeIDStableWithinSecond(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	a := ComputeID(SourceShellCommand, at, "make test\n/src/app")
	b := ComputeID(SourceShellCommand, at.Add(500*time.Millisecond), "make test\n/src/app")
	if a != b {
		t.Errorf("same second should collapse to one id: %s vs %s", a, b)
	}
	c := ComputeID(SourceShellCommand, at.Add(time.Second), "make test\n/src/app")
	if a == c {
		t.Error("next second should produce a distinct id")
	}
	if len(a) != 16 {
		t.Errorf("id length = %d, want 16", len(a))
	}
}

func TestComputeIDVariesBySource(t *testing.T) {
	at := time.Now()
	if ComputeID(SourceShellCommand, at, "x") == ComputeID(SourceFilesystem, at, "x") {
		t.Error("ids should differ across sources")
	}
}

func TestRawEventValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		event   RawEvent
		wantErr bool
	}{
		{
			name: "command ok",
			event: RawEvent{ID: "a", Source: SourceShellCommand, ObservedAt: now,
				Payload: Payload{Command: &CommandPayload{Command: "go build"}}},
		},
		{
			name: "file ok",
			event: RawEvent{ID: "b", Source: SourceFilesystem, ObservedAt: now,
				Payload: Payload{File: &FilePayload{Path: "main.go", Change: ChangeModified}}},
		},
		{
			name: "git ok",
			event: RawEvent{ID: "c", Source: SourceVersionControl, ObservedAt: now,
				Payload: Payload{Git: &GitPayload{CommitHash: "abc123"}}},
		},
		{
			name:    "missing id",
			event:   RawEvent{Source: SourceShellCommand, Payload: Payload{Command: &CommandPayload{}}},
			wantErr: true,
		},
		{
			name:    "wrong payload arm",
			event:   RawEvent{ID: "d", Source: SourceShellCommand, Payload: Payload{File: &FilePayload{}}},
			wantErr: true,
		},
		{
			name:    "unknown source",
			event:   RawEvent{ID: "e", Source: "editor"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDefaultCategory(t *testing.T) {
	if got := DefaultCategory(SourceVersionControl); got != CategoryGitCommit {
		t.Errorf("version_control default = %s", got)
	}
	if got := DefaultCategory(SourceFilesystem); got != CategoryFileModified {
		t.Errorf("filesystem default = %s", got)
	}
	if got := DefaultCategory(SourceShellCommand); got != CategoryCommandRun {
		t.Errorf("shell_command default = %s", got)
	}
}

func TestReviewStateFor(t *testing.T) {
	for _, tc := range []struct {
		outcome Outcome
		want    ReviewState
	}{
		{OutcomeApproved, ReviewApproved},
		{OutcomeEdited, ReviewEdited},
		{OutcomeSkipped, ReviewSkipped},
	} {
		if got := ReviewStateFor(tc.outcome); got != tc.want {
			t.Errorf("ReviewStateFor(%s) = %s, want %s", tc.outcome, got, tc.want)
		}
	}
}

func TestDecisionCurates(t *testing.T) {
	if !(&Decision{Outcome: OutcomeApproved}).Curates() {
		t.Error("approved should curate")
	}
	if !(&Decision{Outcome: OutcomeEdited}).Curates() {
		t.Error("edited should curate")
	}
	if (&Decision{Outcome: OutcomeSkipped}).Curates() {
		t.Error("skipped should not curate")
	}
}

func TestBucketFor(t *testing.T) {
	for _, tc := range []struct {
		importance int
		want       ImportanceBucket
	}{
		{0, BucketLow}, {3, BucketLow},
		{4, BucketMedium}, {6, BucketMedium},
		{7, BucketHigh}, {10, BucketHigh},
	} {
		if got := BucketFor(tc.importance); got != tc.want {
			t.Errorf("BucketFor(%d) = %s, want %s", tc.importance, got, tc.want)
		}
	}
}
