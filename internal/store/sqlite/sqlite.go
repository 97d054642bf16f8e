// Package sqlite implements the store.Store interface backed by SQLite.
// The event store is local and single-user, so an embedded database keyed
// by event id satisfies the uniqueness invariant without a server.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements store.Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements store.Store.
var _ store.Store = (*SQLiteStore)(nil)

// New opens (creating if necessary) the SQLite database at path, applies
// pragmas for durable concurrent use, and runs any pending migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single writer connection avoids SQLITE_BUSY churn; reads share it.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertEvent(ctx context.Context, event *model.CategorizedEvent) (bool, error) {
	return queryInsertEvent(ctx, s.db, event)
}

func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*model.CategorizedEvent, error) {
	return queryGetEvent(ctx, s.db, id)
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.CategorizedEvent, error) {
	return queryListEvents(ctx, s.db, filter)
}

func (s *SQLiteStore) ListPending(ctx context.Context, minImportance, limit int) ([]*model.CategorizedEvent, error) {
	return queryListPending(ctx, s.db, minImportance, limit)
}

func (s *SQLiteStore) SetReviewState(ctx context.Context, id string, state model.ReviewState) error {
	return querySetReviewState(ctx, s.db, id, state)
}

func (s *SQLiteStore) Statistics(ctx context.Context, since time.Time) (*model.Stats, error) {
	return queryStatistics(ctx, s.db, since)
}

func (s *SQLiteStore) PutDecision(ctx context.Context, decision *model.Decision) error {
	return queryPutDecision(ctx, s.db, decision)
}

func (s *SQLiteStore) GetDecision(ctx context.Context, eventID string) (*model.Decision, error) {
	return queryGetDecision(ctx, s.db, eventID)
}

func (s *SQLiteStore) InsertEntry(ctx context.Context, entry *model.KnowledgeEntry) error {
	return queryInsertEntry(ctx, s.db, entry)
}

func (s *SQLiteStore) ListEntries(ctx context.Context, limit int) ([]*model.KnowledgeEntry, error) {
	return queryListEntries(ctx, s.db, limit)
}

func (s *SQLiteStore) ListUndeliveredEntries(ctx context.Context) ([]*model.KnowledgeEntry, error) {
	return queryListUndeliveredEntries(ctx, s.db)
}

func (s *SQLiteStore) RecordDeliveryAttempt(ctx context.Context, id string) error {
	return queryRecordDeliveryAttempt(ctx, s.db, id)
}

func (s *SQLiteStore) MarkEntryDelivered(ctx context.Context, id string, at time.Time) error {
	return queryMarkEntryDelivered(ctx, s.db, id, at)
}

func (s *SQLiteStore) GetImportMark(ctx context.Context, segment string) (int, error) {
	return queryGetImportMark(ctx, s.db, segment)
}

func (s *SQLiteStore) SetImportMark(ctx context.Context, segment string, line int) error {
	return querySetImportMark(ctx, s.db, segment, line)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *SQLiteStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) InsertEvent(ctx context.Context, event *model.CategorizedEvent) (bool, error) {
	return queryInsertEvent(ctx, s.tx, event)
}

func (s *txStore) GetEvent(ctx context.Context, id string) (*model.CategorizedEvent, error) {
	return queryGetEvent(ctx, s.tx, id)
}

func (s *txStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.CategorizedEvent, error) {
	return queryListEvents(ctx, s.tx, filter)
}

func (s *txStore) ListPending(ctx context.Context, minImportance, limit int) ([]*model.CategorizedEvent, error) {
	return queryListPending(ctx, s.tx, minImportance, limit)
}

func (s *txStore) SetReviewState(ctx context.Context, id string, state model.ReviewState) error {
	return querySetReviewState(ctx, s.tx, id, state)
}

func (s *txStore) Statistics(ctx context.Context, since time.Time) (*model.Stats, error) {
	return queryStatistics(ctx, s.tx, since)
}

func (s *txStore) PutDecision(ctx context.Context, decision *model.Decision) error {
	return queryPutDecision(ctx, s.tx, decision)
}

func (s *txStore) GetDecision(ctx context.Context, eventID string) (*model.Decision, error) {
	return queryGetDecision(ctx, s.tx, eventID)
}

func (s *txStore) InsertEntry(ctx context.Context, entry *model.KnowledgeEntry) error {
	return queryInsertEntry(ctx, s.tx, entry)
}

func (s *txStore) ListEntries(ctx context.Context, limit int) ([]*model.KnowledgeEntry, error) {
	return queryListEntries(ctx, s.tx, limit)
}

func (s *txStore) ListUndeliveredEntries(ctx context.Context) ([]*model.KnowledgeEntry, error) {
	return queryListUndeliveredEntries(ctx, s.tx)
}

func (s *txStore) RecordDeliveryAttempt(ctx context.Context, id string) error {
	return queryRecordDeliveryAttempt(ctx, s.tx, id)
}

func (s *txStore) MarkEntryDelivered(ctx context.Context, id string, at time.Time) error {
	return queryMarkEntryDelivered(ctx, s.tx, id, at)
}

func (s *txStore) GetImportMark(ctx context.Context, segment string) (int, error) {
	return queryGetImportMark(ctx, s.tx, segment)
}

func (s *txStore) SetImportMark(ctx context.Context, segment string, line int) error {
	return querySetImportMark(ctx, s.tx, segment, line)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
