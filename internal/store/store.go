// Package store defines the persistence interface for the event store: the
// indexed, queryable materialization of categorized events, decisions, and
// queued knowledge entries.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface for the event store.
type Store interface {
	// Categorized events. InsertEvent reports added=false for a raw event
	// id that is already materialized; the existing row (including its
	// review state) is left untouched.
	InsertEvent(ctx context.Context, event *model.CategorizedEvent) (added bool, err error)
	GetEvent(ctx context.Context, id string) (*model.CategorizedEvent, error)
	ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.CategorizedEvent, error)
	ListPending(ctx context.Context, minImportance, limit int) ([]*model.CategorizedEvent, error)
	SetReviewState(ctx context.Context, id string, state model.ReviewState) error
	Statistics(ctx context.Context, since time.Time) (*model.Stats, error)

	// Decisions. PutDecision replaces any prior decision on the same event.
	PutDecision(ctx context.Context, decision *model.Decision) error
	GetDecision(ctx context.Context, eventID string) (*model.Decision, error)

	// Knowledge entries, queued until delivery is acknowledged.
	InsertEntry(ctx context.Context, entry *model.KnowledgeEntry) error
	ListEntries(ctx context.Context, limit int) ([]*model.KnowledgeEntry, error)
	ListUndeliveredEntries(ctx context.Context) ([]*model.KnowledgeEntry, error)
	RecordDeliveryAttempt(ctx context.Context, id string) error
	MarkEntryDelivered(ctx context.Context, id string, at time.Time) error

	// Import high-water marks, one per event-log segment.
	GetImportMark(ctx context.Context, segment string) (int, error)
	SetImportMark(ctx context.Context, segment string, line int) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
