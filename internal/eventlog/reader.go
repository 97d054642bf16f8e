package eventlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/Fato07/knowledge-base/internal/model"
)

// Segments lists segment file names in chronological order. Date-based
// names sort lexically, so a plain sort suffices.
func (l *Log) Segments() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read log dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read replays a segment from a line offset, supporting resumable import.
// It returns the decoded events and the line offset after the last line
// consumed, to be persisted as the new high-water mark.
//
// Only newline-terminated lines count toward the mark: an unterminated
// tail is an append in flight (or a crash-torn write the restarted writer
// will extend), and advancing past it would lose the record once it
// completes. A terminated line that fails to decode is garbage the writer
// will never repair; it is skipped with a warning and does advance.
func (l *Log) Read(segment string, fromLine int) ([]model.RawEvent, int, error) {
	f, err := os.Open(filepath.Join(l.dir, segment))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fromLine, nil
		}
		return nil, fromLine, fmt.Errorf("open segment %s: %w", segment, err)
	}
	defer f.Close()

	// Shared lock: appenders hold an exclusive lock for the write+fsync,
	// so holding a shared one here means we never observe a write midway.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH); err != nil {
		return nil, fromLine, fmt.Errorf("lock segment %s: %w", segment, err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fromLine, fmt.Errorf("read segment %s: %w", segment, err)
	}

	var events []model.RawEvent
	offset := 0
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			// Unterminated tail; leave it for the next read.
			break
		}
		line := strings.TrimSpace(string(data[:nl]))
		data = data[nl+1:]
		offset++
		if offset <= fromLine || line == "" {
			continue
		}
		var event model.RawEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			l.logger.Warn("event log: skipping undecodable line",
				"segment", segment, "line", offset, "err", err)
			continue
		}
		events = append(events, event)
	}
	if offset < fromLine {
		// Mark is past EOF (segment truncated or mark from another file);
		// report the real length so the caller can resync.
		return nil, offset, nil
	}
	return events, offset, nil
}
