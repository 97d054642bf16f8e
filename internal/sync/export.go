// Package sync periodically snapshots the event store as JSONL and ships
// the snapshot to archive destinations such as S3. The archive is a backup
// of curated state; the append-only event log remains the source of truth.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EventCount int       `json:"event_count"`
	EntryCount int       `json:"entry_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every categorized event, its decision if one exists,
// and every knowledge entry to w. Events are sorted by id so successive
// exports of the same state are byte-comparable apart from the header
// timestamp.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	events, err := s.ListEvents(ctx, model.EventFilter{})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ID < events[j].ID
	})

	entries, err := s.ListEntries(ctx, 0)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		EventCount: len(events),
		EntryCount: len(entries),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, e := range events {
		if err := enc.Encode(record{Type: "event", Data: e}); err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
		if e.ReviewState == model.ReviewPending {
			continue
		}
		decision, err := s.GetDecision(ctx, e.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("get decision for %s: %w", e.ID, err)
		}
		if err := enc.Encode(record{Type: "decision", Data: decision}); err != nil {
			return fmt.Errorf("encode decision %s: %w", decision.ID, err)
		}
	}

	for _, e := range entries {
		if err := enc.Encode(record{Type: "entry", Data: e}); err != nil {
			return fmt.Errorf("encode entry %s: %w", e.ID, err)
		}
	}

	return nil
}
