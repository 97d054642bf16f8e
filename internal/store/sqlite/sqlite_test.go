package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// eventRowColumns is the column list for scanEvent results.
var eventRowColumns = []string{
	"id", "raw_event_id", "source", "category", "importance",
	"key_facts", "review_state", "observed_at", "created_at",
}

func addEventRow(rows *sqlmock.Rows, id, category string, importance int, state string, at time.Time) *sqlmock.Rows {
	return rows.AddRow(id, id, "shell_command", category, importance, nil, state, at, at)
}

func TestInsertEventReportsAdded(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO events").
		WithArgs("ev1", "ev1", "shell_command", "command_run", 8,
			sqlmock.AnyArg(), "pending", now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	added, err := queryInsertEvent(context.Background(), db, &model.CategorizedEvent{
		ID: "ev1", RawEventID: "ev1", Source: model.SourceShellCommand,
		Category: model.CategoryCommandRun, Importance: 8, ObservedAt: now,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !added {
		t.Error("added = false, want true")
	}
}

func TestInsertEventDuplicateIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	// ON CONFLICT DO NOTHING reports zero rows affected for a duplicate.
	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := queryInsertEvent(context.Background(), db, &model.CategorizedEvent{
		ID: "ev1", RawEventID: "ev1", Source: model.SourceShellCommand,
		Category: model.CategoryCommandRun, Importance: 8, ObservedAt: now,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if added {
		t.Error("added = true for duplicate, want false")
	}
}

func TestGetEventNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM events WHERE id = ?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetEvent(context.Background(), db, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetEventDecodesKeyFacts(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	facts, _ := json.Marshal(map[string]string{"command": "docker build .", "exit_code": "1"})

	rows := sqlmock.NewRows(eventRowColumns).
		AddRow("ev1", "ev1", "shell_command", "command_run", 8, facts, "pending", now, now)
	mock.ExpectQuery("SELECT .+ FROM events WHERE id = ?").
		WithArgs("ev1").WillReturnRows(rows)

	e, err := queryGetEvent(context.Background(), db, "ev1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Fact("command") != "docker build ." {
		t.Errorf("key facts = %v", e.KeyFacts)
	}
	if e.ReviewState != model.ReviewPending {
		t.Errorf("review state = %s", e.ReviewState)
	}
}

func TestListPendingOrderingAndThreshold(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(eventRowColumns)
	addEventRow(rows, "hi", "command_run", 9, "pending", now)
	addEventRow(rows, "old-mid", "command_run", 5, "pending", now.Add(-time.Hour))
	addEventRow(rows, "new-mid", "command_run", 5, "pending", now)

	mock.ExpectQuery("SELECT .+ FROM events\\s+WHERE review_state = \\? AND importance >= \\?\\s+ORDER BY importance DESC, observed_at ASC LIMIT \\?").
		WithArgs("pending", 1, 10).
		WillReturnRows(rows)

	events, err := queryListPending(context.Background(), db, 1, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].ID != "hi" || events[1].ID != "old-mid" {
		t.Errorf("order = %s, %s, %s", events[0].ID, events[1].ID, events[2].ID)
	}
}

func TestSetReviewStateMissingEvent(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE events SET review_state").
		WithArgs("approved", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := querySetReviewState(context.Background(), db, "missing", model.ReviewApproved)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStatisticsAggregation(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"category", "importance", "review_state", "count"}).
		AddRow("command_run", 8, "pending", 2).
		AddRow("command_run", 2, "approved", 1).
		AddRow("git_commit", 5, "pending", 3)
	mock.ExpectQuery("SELECT category, importance, review_state, COUNT\\(\\*\\) FROM events GROUP BY").
		WillReturnRows(rows)

	stats, err := queryStatistics(context.Background(), db, time.Time{})
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Total != 6 {
		t.Errorf("total = %d, want 6", stats.Total)
	}
	if stats.ByCategory[model.CategoryCommandRun] != 3 {
		t.Errorf("command_run = %d, want 3", stats.ByCategory[model.CategoryCommandRun])
	}
	if stats.ByBucket[model.BucketHigh] != 2 || stats.ByBucket[model.BucketMedium] != 3 || stats.ByBucket[model.BucketLow] != 1 {
		t.Errorf("buckets = %v", stats.ByBucket)
	}
	if stats.ByState[model.ReviewPending] != 5 {
		t.Errorf("pending = %d, want 5", stats.ByState[model.ReviewPending])
	}
}

func TestPutDecisionUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO decisions .+ ON CONFLICT \\(event_id\\) DO UPDATE").
		WithArgs("dec-1", "ev1", "approved", sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := queryPutDecision(context.Background(), db, &model.Decision{
		ID: "dec-1", EventID: "ev1", Outcome: model.OutcomeApproved, DecidedAt: now,
	})
	if err != nil {
		t.Fatalf("put decision: %v", err)
	}
}

func TestGetImportMarkDefaultsToZero(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT line FROM import_marks WHERE segment = ?").
		WithArgs("events-2026-08-20.jsonl").
		WillReturnError(sql.ErrNoRows)

	line, err := queryGetImportMark(context.Background(), db, "events-2026-08-20.jsonl")
	if err != nil {
		t.Fatalf("get mark: %v", err)
	}
	if line != 0 {
		t.Errorf("line = %d, want 0", line)
	}
}

func TestScanHelpers(t *testing.T) {
	// nullTimePtr
	if nullTimePtr(nil).Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if nt := nullTimePtr(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("nullTimePtr(now) = %v", nt)
	}

	// nullString
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf("nullString(\"hello\") = %v", ns)
	}

	// factsBytes / tagsBytes
	if factsBytes(nil) != nil {
		t.Error("factsBytes(nil) should be nil")
	}
	if tagsBytes(nil) != nil {
		t.Error("tagsBytes(nil) should be nil")
	}
	if string(factsBytes(map[string]string{"k": "v"})) != `{"k":"v"}` {
		t.Error("factsBytes should marshal the map")
	}
	if string(tagsBytes([]string{"a", "b"})) != `["a","b"]` {
		t.Error("tagsBytes should marshal the slice")
	}
}
