// Package events is the optional notification bus for pipeline lifecycle
// events. When no NATS URL is configured the noop publisher is used and the
// pipeline runs fully offline.
package events

import (
	"context"

	"github.com/Fato07/knowledge-base/internal/model"
)

// Topic constants.
const (
	TopicEventCaptured  = "kb.event.captured"
	TopicImportDone     = "kb.import.completed"
	TopicReviewDecided  = "kb.review.decided"
	TopicEntryCurated   = "kb.entry.curated"
	TopicEntryDelivered = "kb.entry.delivered"
)

// Event payloads.

type EventCaptured struct {
	ID     string       `json:"id"`
	Source model.Source `json:"source"`
}

type ImportDone struct {
	Added            int `json:"added"`
	SkippedDuplicate int `json:"skipped_duplicate"`
}

type ReviewDecided struct {
	EventID string        `json:"event_id"`
	Outcome model.Outcome `json:"outcome"`
}

type EntryCurated struct {
	EntryID    string `json:"entry_id"`
	DecisionID string `json:"decision_id"`
	Title      string `json:"title"`
}

type EntryDelivered struct {
	EntryID string `json:"entry_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives raw event payloads for a topic pattern.
type Subscriber interface {
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
