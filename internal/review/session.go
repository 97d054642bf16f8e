// Package review runs interactive triage over pending categorized events.
// A session snapshots its queue up front, presents each event at most once,
// and persists every decision the moment it is made, so an interrupted
// session loses nothing already decided.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/idgen"
	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/store"
)

// ErrEndSession is returned by a Prompter to end the session early. Events
// not yet presented stay pending for the next session.
var ErrEndSession = errors.New("review: session ended")

// Prompter presents one event and returns the reviewer's outcome. For
// edited outcomes the second return value carries the replacement text.
type Prompter interface {
	Prompt(event *model.CategorizedEvent) (model.Outcome, string, error)
}

// Curator turns approved and edited decisions into knowledge entries.
// Materialize must be side-effect free: the session inserts the returned
// entry in the same transaction that commits the decision, then hands it
// to Deliver once the transaction is durable.
type Curator interface {
	Materialize(decision *model.Decision, event *model.CategorizedEvent) (*model.KnowledgeEntry, error)
	Deliver(ctx context.Context, entry *model.KnowledgeEntry)
}

// Summary reports what a session did.
type Summary struct {
	Presented int `json:"presented"`
	Approved  int `json:"approved"`
	Edited    int `json:"edited"`
	Skipped   int `json:"skipped"`
	Remaining int `json:"remaining"`
}

// Session drives one review pass.
type Session struct {
	store    store.Store
	curator  Curator
	prompter Prompter
	bus      events.Publisher
	logger   *slog.Logger

	minImportance  int
	revisitSkipped bool
	decidedBy      string
}

// Option configures a session.
type Option func(*Session)

// WithMinImportance drops events below the threshold from the queue.
func WithMinImportance(min int) Option {
	return func(s *Session) { s.minImportance = min }
}

// WithRevisitSkipped queues previously skipped events instead of pending
// ones.
func WithRevisitSkipped() Option {
	return func(s *Session) { s.revisitSkipped = true }
}

// WithReviewer records who made the decisions.
func WithReviewer(name string) Option {
	return func(s *Session) { s.decidedBy = name }
}

// NewSession wires a review session. curator may be nil to record decisions
// without producing knowledge entries.
func NewSession(st store.Store, curator Curator, prompter Prompter, bus events.Publisher, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{store: st, curator: curator, prompter: prompter, bus: bus, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run presents the queue and returns a summary. The queue is snapshotted
// once at the start; events captured or imported mid-session wait for the
// next one.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	queue, err := s.queue(ctx)
	if err != nil {
		return summary, err
	}

	for n, event := range queue {
		if err := ctx.Err(); err != nil {
			summary.Remaining = len(queue) - n
			return summary, err
		}

		outcome, edited, err := s.prompter.Prompt(event)
		if errors.Is(err, ErrEndSession) {
			summary.Remaining = len(queue) - n
			return summary, nil
		}
		if err != nil {
			summary.Remaining = len(queue) - n
			return summary, fmt.Errorf("prompt: %w", err)
		}

		summary.Presented++
		if err := s.decide(ctx, event, outcome, edited); err != nil {
			return summary, err
		}
		switch outcome {
		case model.OutcomeApproved:
			summary.Approved++
		case model.OutcomeEdited:
			summary.Edited++
		case model.OutcomeSkipped:
			summary.Skipped++
		}
	}
	return summary, nil
}

func (s *Session) queue(ctx context.Context) ([]*model.CategorizedEvent, error) {
	if s.revisitSkipped {
		queue, err := s.store.ListEvents(ctx, model.EventFilter{
			ReviewState:   []model.ReviewState{model.ReviewSkipped},
			MinImportance: s.minImportance,
		})
		if err != nil {
			return nil, fmt.Errorf("list skipped: %w", err)
		}
		return queue, nil
	}
	queue, err := s.store.ListPending(ctx, s.minImportance, 0)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return queue, nil
}

// decide persists one decision. The entry is materialized up front, then
// the state transition, the decision record, and the queued entry commit in
// a single transaction: an approved decision and its knowledge entry exist
// together or not at all. Delivery to the external store runs after the
// commit; a failed delivery leaves the entry queued for retry, never the
// decision undone. A materialization failure commits nothing, so the event
// stays pending and is presented again.
func (s *Session) decide(ctx context.Context, event *model.CategorizedEvent, outcome model.Outcome, edited string) error {
	if !outcome.IsValid() {
		return fmt.Errorf("review: unknown outcome %q", outcome)
	}

	id, err := idgen.Decision()
	if err != nil {
		return err
	}
	decision := &model.Decision{
		ID:         id,
		EventID:    event.ID,
		Outcome:    outcome,
		EditedText: edited,
		DecidedBy:  s.decidedBy,
		DecidedAt:  time.Now().UTC(),
	}

	var entry *model.KnowledgeEntry
	if s.curator != nil && decision.Curates() {
		if entry, err = s.curator.Materialize(decision, event); err != nil {
			return fmt.Errorf("materialize entry for %s: %w", event.ID, err)
		}
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.SetReviewState(ctx, event.ID, model.ReviewStateFor(outcome)); err != nil {
			return err
		}
		if err := tx.PutDecision(ctx, decision); err != nil {
			return err
		}
		if entry != nil {
			return tx.InsertEntry(ctx, entry)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record decision for %s: %w", event.ID, err)
	}
	event.ReviewState = model.ReviewStateFor(outcome)

	if err := s.bus.Publish(ctx, events.TopicReviewDecided, events.ReviewDecided{
		EventID: event.ID, Outcome: outcome,
	}); err != nil {
		s.logger.Debug("review: bus publish failed", "event", event.ID, "err", err)
	}

	if entry != nil {
		s.curator.Deliver(ctx, entry)
	}
	return nil
}
