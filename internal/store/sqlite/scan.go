package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.CategorizedEvent.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.CategorizedEvent, error) {
	var e model.CategorizedEvent
	var facts []byte

	err := row.Scan(
		&e.ID,
		&e.RawEventID,
		&e.Source,
		&e.Category,
		&e.Importance,
		&facts,
		&e.ReviewState,
		&e.ObservedAt,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(facts) > 0 {
		if err := json.Unmarshal(facts, &e.KeyFacts); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of CategorizedEvent pointers.
func scanEvents(rows *sql.Rows) ([]*model.CategorizedEvent, error) {
	var events []*model.CategorizedEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanDecision scans a single row into a model.Decision.
func scanDecision(row scannable) (*model.Decision, error) {
	var d model.Decision
	var (
		editedText sql.NullString
		decidedBy  sql.NullString
	)
	err := row.Scan(
		&d.ID,
		&d.EventID,
		&d.Outcome,
		&editedText,
		&decidedBy,
		&d.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	d.EditedText = editedText.String
	d.DecidedBy = decidedBy.String
	return &d, nil
}

// scanEntry scans a single row into a model.KnowledgeEntry.
func scanEntry(row scannable) (*model.KnowledgeEntry, error) {
	var e model.KnowledgeEntry
	var (
		tags        []byte
		deliveredAt sql.NullTime
	)
	err := row.Scan(
		&e.ID,
		&e.SourceDecisionID,
		&e.Title,
		&e.Body,
		&tags,
		&e.CreatedAt,
		&deliveredAt,
		&e.DeliveryAttempts,
	)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &e.Tags); err != nil {
			return nil, err
		}
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		e.DeliveredAt = &t
	}
	return &e, nil
}

// scanEntries scans multiple rows into a slice of KnowledgeEntry pointers.
func scanEntries(rows *sql.Rows) ([]*model.KnowledgeEntry, error) {
	var entries []*model.KnowledgeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// factsBytes serializes key facts for the TEXT column; empty maps store NULL.
func factsBytes(facts map[string]string) []byte {
	if len(facts) == 0 {
		return nil
	}
	b, err := json.Marshal(facts)
	if err != nil {
		return nil
	}
	return b
}

// tagsBytes serializes entry tags for the TEXT column; empty slices store NULL.
func tagsBytes(tags []string) []byte {
	if len(tags) == 0 {
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return b
}
