// Package eventlog implements the append-only, date-partitioned record of
// raw events. One JSONL segment per capture day; append is crash-safe and
// safe under concurrent writers from multiple adapter processes.
package eventlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
)

const segmentPrefix = "events-"
const segmentSuffix = ".jsonl"

// Append retry policy for durability failures. Telemetry loss is preferred
// over blocking the observed workflow, so after maxAttempts the event is
// dropped and counted.
const (
	maxAttempts  = 3
	retryBackoff = 50 * time.Millisecond
)

// Log is an append-only event log rooted at a directory.
type Log struct {
	dir     string
	logger  *slog.Logger
	dropped atomic.Int64
}

// New creates the log directory if needed and returns a Log.
func New(dir string, logger *slog.Logger) (*Log, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{dir: dir, logger: logger}, nil
}

// Dir returns the log directory.
func (l *Log) Dir() string {
	return l.dir
}

// Dropped returns the number of events lost to durability failures.
func (l *Log) Dropped() int64 {
	return l.dropped.Load()
}

// SegmentName returns the segment file name for a capture time.
func SegmentName(at time.Time) string {
	return segmentPrefix + at.UTC().Format("2006-01-02") + segmentSuffix
}

// Append writes one event to its day segment. The write is serialized via
// an exclusive file lock and fsynced before returning, so a successful
// return means the event survives a crash. On persistent failure the event
// is dropped, counted, and a nil error is returned: append never fails the
// observed workflow.
func (l *Log) Append(event model.RawEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
		if lastErr = l.appendOnce(event); lastErr == nil {
			return nil
		}
	}

	l.dropped.Add(1)
	l.logger.Warn("event log: dropping event after retries",
		"id", event.ID, "source", event.Source.String(), "err", lastErr)
	return nil
}

func (l *Log) appendOnce(event model.RawEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')

	path := filepath.Join(l.dir, SegmentName(event.ObservedAt))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open segment: %w", err)
	}
	defer f.Close()

	// Exclusive lock so interleaved appends from concurrent adapters never
	// corrupt a record. O_APPEND alone does not guarantee atomicity for
	// lines longer than PIPE_BUF.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock segment: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write segment: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync segment: %w", err)
	}
	return nil
}
