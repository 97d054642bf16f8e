package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/store"
)

// eventColumns is the column list used for SELECT statements on the events table.
const eventColumns = `id, raw_event_id, source, category, importance,
	key_facts, review_state, observed_at, created_at`

// entryColumns is the column list used for SELECT statements on the entries table.
const entryColumns = `id, source_decision_id, title, body, tags,
	created_at, delivered_at, delivery_attempts`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryInsertEvent(ctx context.Context, db executor, e *model.CategorizedEvent) (bool, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.ReviewState == "" {
		e.ReviewState = model.ReviewPending
	}

	// Duplicate raw event ids are a no-op: the existing row, including any
	// recorded review state, must survive reimport untouched.
	res, err := db.ExecContext(ctx, `
		INSERT INTO events (
			id, raw_event_id, source, category, importance,
			key_facts, review_state, observed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (raw_event_id) DO NOTHING`,
		e.ID,
		e.RawEventID,
		string(e.Source),
		string(e.Category),
		e.Importance,
		factsBytes(e.KeyFacts),
		string(e.ReviewState),
		e.ObservedAt,
		e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert event rows: %w", err)
	}
	return n > 0, nil
}

func queryGetEvent(ctx context.Context, db executor, id string) (*model.CategorizedEvent, error) {
	row := db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return e, err
}

func queryListEvents(ctx context.Context, db executor, filter model.EventFilter) ([]*model.CategorizedEvent, error) {
	var (
		whereClauses []string
		args         []any
	)

	if len(filter.Source) > 0 {
		placeholders := make([]string, len(filter.Source))
		for i, s := range filter.Source {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "source IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.Category) > 0 {
		placeholders := make([]string, len(filter.Category))
		for i, c := range filter.Category {
			placeholders[i] = "?"
			args = append(args, string(c))
		}
		whereClauses = append(whereClauses, "category IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.ReviewState) > 0 {
		placeholders := make([]string, len(filter.ReviewState))
		for i, s := range filter.ReviewState {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "review_state IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.MinImportance > 0 {
		whereClauses = append(whereClauses, "importance >= ?")
		args = append(args, filter.MinImportance)
	}

	if !filter.Since.IsZero() {
		whereClauses = append(whereClauses, "observed_at >= ?")
		args = append(args, filter.Since)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY importance DESC, observed_at ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// queryListPending returns pending events ordered by importance descending,
// then observation time ascending so old events in a tier are not starved.
func queryListPending(ctx context.Context, db executor, minImportance, limit int) ([]*model.CategorizedEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE review_state = ? AND importance >= ?
		ORDER BY importance DESC, observed_at ASC`
	args := []any{string(model.ReviewPending), minImportance}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func querySetReviewState(ctx context.Context, db executor, id string, state model.ReviewState) error {
	res, err := db.ExecContext(ctx,
		`UPDATE events SET review_state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("set review state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set review state rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryStatistics(ctx context.Context, db executor, since time.Time) (*model.Stats, error) {
	query := `SELECT category, importance, review_state, COUNT(*) FROM events`
	var args []any
	if !since.IsZero() {
		query += ` WHERE observed_at >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY category, importance, review_state`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	defer rows.Close()

	stats := &model.Stats{
		ByCategory:  map[model.Category]int{},
		ByBucket:    map[model.ImportanceBucket]int{},
		ByState:     map[model.ReviewState]int{},
		PeriodStart: since,
	}
	for rows.Next() {
		var (
			category   string
			importance int
			state      string
			count      int
		)
		if err := rows.Scan(&category, &importance, &state, &count); err != nil {
			return nil, fmt.Errorf("scan statistics: %w", err)
		}
		stats.Total += count
		stats.ByCategory[model.Category(category)] += count
		stats.ByBucket[model.BucketFor(importance)] += count
		stats.ByState[model.ReviewState(state)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// queryPutDecision records a decision, replacing any prior decision on the
// same event. At most one active decision exists per event.
func queryPutDecision(ctx context.Context, db executor, d *model.Decision) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO decisions (id, event_id, outcome, edited_text, decided_by, decided_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO UPDATE SET
			id = excluded.id,
			outcome = excluded.outcome,
			edited_text = excluded.edited_text,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at`,
		d.ID,
		d.EventID,
		string(d.Outcome),
		nullString(d.EditedText),
		nullString(d.DecidedBy),
		d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("put decision: %w", err)
	}
	return nil
}

func queryGetDecision(ctx context.Context, db executor, eventID string) (*model.Decision, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, event_id, outcome, edited_text, decided_by, decided_at
		FROM decisions WHERE event_id = ?`, eventID)
	d, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return d, err
}

func queryInsertEntry(ctx context.Context, db executor, e *model.KnowledgeEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO entries (
			id, source_decision_id, title, body, tags,
			created_at, delivered_at, delivery_attempts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.SourceDecisionID,
		e.Title,
		e.Body,
		tagsBytes(e.Tags),
		e.CreatedAt,
		nullTimePtr(e.DeliveredAt),
		e.DeliveryAttempts,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func queryListEntries(ctx context.Context, db executor, limit int) ([]*model.KnowledgeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func queryListUndeliveredEntries(ctx context.Context, db executor) ([]*model.KnowledgeEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries
		WHERE delivered_at IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list undelivered entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func queryRecordDeliveryAttempt(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE entries SET delivery_attempts = delivery_attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("record delivery attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryMarkEntryDelivered(ctx context.Context, db executor, id string, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE entries SET delivered_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("mark entry delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// queryGetImportMark returns the high-water line for a segment; a segment
// never imported is at line 0.
func queryGetImportMark(ctx context.Context, db executor, segment string) (int, error) {
	var line int
	err := db.QueryRowContext(ctx,
		`SELECT line FROM import_marks WHERE segment = ?`, segment).Scan(&line)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get import mark: %w", err)
	}
	return line, nil
}

func querySetImportMark(ctx context.Context, db executor, segment string, line int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO import_marks (segment, line, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (segment) DO UPDATE SET
			line = excluded.line,
			updated_at = excluded.updated_at`,
		segment, line, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set import mark: %w", err)
	}
	return nil
}
