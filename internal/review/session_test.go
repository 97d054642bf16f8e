package review

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/store"
	"github.com/Fato07/knowledge-base/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// scriptedPrompter replays a fixed list of outcomes and records the order
// in which events were presented.
type scriptedPrompter struct {
	outcomes []model.Outcome
	edited   map[int]string
	seen     []string
}

func (p *scriptedPrompter) Prompt(event *model.CategorizedEvent) (model.Outcome, string, error) {
	n := len(p.seen)
	p.seen = append(p.seen, event.ID)
	if n >= len(p.outcomes) {
		return "", "", ErrEndSession
	}
	return p.outcomes[n], p.edited[n], nil
}

// recordingCurator captures every decision handed to it and every entry
// delivered after commit.
type recordingCurator struct {
	decisions []*model.Decision
	delivered []*model.KnowledgeEntry
	fail      bool
}

func (c *recordingCurator) Materialize(d *model.Decision, e *model.CategorizedEvent) (*model.KnowledgeEntry, error) {
	if c.fail {
		return nil, errors.New("template rendering failed")
	}
	c.decisions = append(c.decisions, d)
	return &model.KnowledgeEntry{
		ID:               "ke-" + d.ID,
		SourceDecisionID: d.ID,
		Title:            "entry for " + e.ID,
		Body:             "body",
		CreatedAt:        d.DecidedAt,
	}, nil
}

func (c *recordingCurator) Deliver(ctx context.Context, entry *model.KnowledgeEntry) {
	c.delivered = append(c.delivered, entry)
}

func newStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedEvent(t *testing.T, st store.Store, id string, importance int, at time.Time) {
	t.Helper()
	added, err := st.InsertEvent(context.Background(), &model.CategorizedEvent{
		ID:         id,
		RawEventID: id,
		Source:     model.SourceShellCommand,
		Category:   model.CategoryCommandRun,
		Importance: importance,
		KeyFacts:   map[string]string{"command": "make " + id},
		ReviewState: model.ReviewPending,
		ObservedAt: at,
	})
	if err != nil || !added {
		t.Fatalf("seed %s: added=%v err=%v", id, added, err)
	}
}

func TestSessionPersistsEachDecision(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedEvent(t, st, "ev-a", 8, at)
	seedEvent(t, st, "ev-b", 5, at)
	seedEvent(t, st, "ev-c", 3, at)

	curator := &recordingCurator{}
	prompter := &scriptedPrompter{
		outcomes: []model.Outcome{model.OutcomeApproved, model.OutcomeEdited, model.OutcomeSkipped},
		edited:   map[int]string{1: "use make -j for parallel builds"},
	}
	session := NewSession(st, curator, prompter, &events.NoopPublisher{}, testLogger())

	summary, err := session.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Presented != 3 || summary.Approved != 1 || summary.Edited != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}

	wantStates := map[string]model.ReviewState{
		"ev-a": model.ReviewApproved,
		"ev-b": model.ReviewEdited,
		"ev-c": model.ReviewSkipped,
	}
	for id, want := range wantStates {
		got, err := st.GetEvent(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got.ReviewState != want {
			t.Errorf("%s state = %s, want %s", id, got.ReviewState, want)
		}
	}

	// Only approved and edited decisions reach the curator.
	if len(curator.decisions) != 2 {
		t.Fatalf("curator got %d decisions, want 2", len(curator.decisions))
	}
	if curator.decisions[1].EditedText != "use make -j for parallel builds" {
		t.Errorf("edited text = %q", curator.decisions[1].EditedText)
	}

	dec, err := st.GetDecision(ctx, "ev-c")
	if err != nil {
		t.Fatal(err)
	}
	if dec.Outcome != model.OutcomeSkipped {
		t.Errorf("ev-c decision = %s", dec.Outcome)
	}
}

func TestSessionPresentsByImportanceThenAge(t *testing.T) {
	st := newStore(t)
	at := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedEvent(t, st, "low", 2, at)
	seedEvent(t, st, "high", 9, at.Add(time.Hour))
	seedEvent(t, st, "mid-old", 5, at)
	seedEvent(t, st, "mid-new", 5, at.Add(time.Minute))

	prompter := &scriptedPrompter{outcomes: []model.Outcome{
		model.OutcomeSkipped, model.OutcomeSkipped, model.OutcomeSkipped, model.OutcomeSkipped,
	}}
	session := NewSession(st, nil, prompter, &events.NoopPublisher{}, testLogger())
	if _, err := session.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"high", "mid-old", "mid-new", "low"}
	for i, id := range want {
		if prompter.seen[i] != id {
			t.Fatalf("order = %v, want %v", prompter.seen, want)
		}
	}
}

func TestEndSessionLeavesRestPending(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedEvent(t, st, "ev-a", 8, at)
	seedEvent(t, st, "ev-b", 5, at)
	seedEvent(t, st, "ev-c", 3, at)

	prompter := &scriptedPrompter{outcomes: []model.Outcome{model.OutcomeApproved}}
	session := NewSession(st, nil, prompter, &events.NoopPublisher{}, testLogger())

	summary, err := session.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Presented != 1 || summary.Remaining != 2 {
		t.Errorf("summary = %+v", summary)
	}

	pending, err := st.ListPending(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Errorf("%d events pending, want 2", len(pending))
	}
}

func TestMinImportanceFiltersQueue(t *testing.T) {
	st := newStore(t)
	at := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedEvent(t, st, "noise", 1, at)
	seedEvent(t, st, "signal", 7, at)

	prompter := &scriptedPrompter{outcomes: []model.Outcome{model.OutcomeApproved, model.OutcomeApproved}}
	session := NewSession(st, nil, prompter, &events.NoopPublisher{}, testLogger(),
		WithMinImportance(4))
	summary, err := session.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Presented != 1 || prompter.seen[0] != "signal" {
		t.Errorf("presented %v", prompter.seen)
	}
}

func TestRevisitSkippedReplacesDecision(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedEvent(t, st, "ev-a", 6, at)

	// First pass skips it.
	first := NewSession(st, nil,
		&scriptedPrompter{outcomes: []model.Outcome{model.OutcomeSkipped}},
		&events.NoopPublisher{}, testLogger())
	if _, err := first.Run(ctx); err != nil {
		t.Fatal(err)
	}
	firstDec, err := st.GetDecision(ctx, "ev-a")
	if err != nil {
		t.Fatal(err)
	}

	// A normal session no longer sees it.
	second := NewSession(st, nil,
		&scriptedPrompter{outcomes: []model.Outcome{model.OutcomeApproved}},
		&events.NoopPublisher{}, testLogger())
	summary, err := second.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Presented != 0 {
		t.Fatalf("skipped event re-presented without revisit mode")
	}

	// Revisit mode does, and approving replaces the skip decision.
	curator := &recordingCurator{}
	revisit := NewSession(st, curator,
		&scriptedPrompter{outcomes: []model.Outcome{model.OutcomeApproved}},
		&events.NoopPublisher{}, testLogger(), WithRevisitSkipped())
	summary, err = revisit.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Presented != 1 || summary.Approved != 1 {
		t.Fatalf("revisit summary = %+v", summary)
	}

	dec, err := st.GetDecision(ctx, "ev-a")
	if err != nil {
		t.Fatal(err)
	}
	if dec.Outcome != model.OutcomeApproved {
		t.Errorf("outcome = %s, want approved", dec.Outcome)
	}
	if dec.ID == firstDec.ID {
		t.Error("re-decision kept the old decision id")
	}
	got, err := st.GetEvent(ctx, "ev-a")
	if err != nil {
		t.Fatal(err)
	}
	if got.ReviewState != model.ReviewApproved {
		t.Errorf("state = %s", got.ReviewState)
	}
	if len(curator.decisions) != 1 {
		t.Errorf("curator got %d decisions", len(curator.decisions))
	}
}

func TestApprovalQueuesEntryWithDecision(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedEvent(t, st, "ev-a", 8, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	curator := &recordingCurator{}
	session := NewSession(st, curator,
		&scriptedPrompter{outcomes: []model.Outcome{model.OutcomeApproved}},
		&events.NoopPublisher{}, testLogger())
	if _, err := session.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	dec, err := st.GetDecision(ctx, "ev-a")
	if err != nil {
		t.Fatal(err)
	}
	queued, err := st.ListUndeliveredEntries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(queued) != 1 {
		t.Fatalf("queued = %d, want exactly one entry per approved decision", len(queued))
	}
	if queued[0].SourceDecisionID != dec.ID {
		t.Errorf("entry sources decision %q, want %q", queued[0].SourceDecisionID, dec.ID)
	}
	if len(curator.delivered) != 1 || curator.delivered[0].ID != queued[0].ID {
		t.Errorf("delivered = %v, want the queued entry", curator.delivered)
	}
}

func TestMaterializeFailureLeavesEventPending(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedEvent(t, st, "ev-a", 8, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	session := NewSession(st, &recordingCurator{fail: true},
		&scriptedPrompter{outcomes: []model.Outcome{model.OutcomeApproved}},
		&events.NoopPublisher{}, testLogger())
	if _, err := session.Run(ctx); err == nil {
		t.Fatal("expected materialize error")
	}

	// Nothing committed: the event stays pending and will be presented
	// again next session.
	got, err := st.GetEvent(ctx, "ev-a")
	if err != nil {
		t.Fatal(err)
	}
	if got.ReviewState != model.ReviewPending {
		t.Errorf("state = %s, want pending", got.ReviewState)
	}
	if _, err := st.GetDecision(ctx, "ev-a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetDecision err = %v, want ErrNotFound", err)
	}
	entries, err := st.ListEntries(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries exist after failed materialization", len(entries))
	}
}
