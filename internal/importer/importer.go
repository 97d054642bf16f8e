// Package importer materializes event-log segments into the event store.
// Import is idempotent: raw events seen before are counted as duplicates
// and never alter existing rows, so a crash mid-import or a repeated run
// converges on the same store state as one clean import.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Fato07/knowledge-base/internal/classify"
	"github.com/Fato07/knowledge-base/internal/eventlog"
	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/store"
)

// Result reports the outcome of an import run.
type Result struct {
	Added            int `json:"added"`
	SkippedDuplicate int `json:"skipped_duplicate"`
}

// Importer drives log-to-store imports.
type Importer struct {
	log        *eventlog.Log
	store      store.Store
	classifier *classify.Classifier
	bus        events.Publisher
	logger     *slog.Logger
}

// New wires an importer. bus may be a NoopPublisher.
func New(log *eventlog.Log, s store.Store, classifier *classify.Classifier, bus events.Publisher, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{log: log, store: s, classifier: classifier, bus: bus, logger: logger}
}

// ImportAll imports every segment in order and announces the combined
// result on the bus.
func (i *Importer) ImportAll(ctx context.Context) (Result, error) {
	var total Result

	segments, err := i.log.Segments()
	if err != nil {
		return total, fmt.Errorf("list segments: %w", err)
	}

	for _, segment := range segments {
		res, err := i.ImportSegment(ctx, segment)
		if err != nil {
			return total, fmt.Errorf("import %s: %w", segment, err)
		}
		total.Added += res.Added
		total.SkippedDuplicate += res.SkippedDuplicate
	}

	if err := i.bus.Publish(ctx, events.TopicImportDone, events.ImportDone{
		Added:            total.Added,
		SkippedDuplicate: total.SkippedDuplicate,
	}); err != nil {
		i.logger.Debug("importer: bus publish failed", "err", err)
	}

	return total, nil
}

// ImportSegment replays one segment from its high-water mark, classifies
// each raw event, and inserts the result. The batch and the advanced mark
// commit in one transaction: a crash mid-import re-reads from the old mark
// and the unique raw_event_id constraint absorbs the overlap as duplicates.
func (i *Importer) ImportSegment(ctx context.Context, segment string) (Result, error) {
	var res Result

	mark, err := i.store.GetImportMark(ctx, segment)
	if err != nil {
		return res, fmt.Errorf("read mark: %w", err)
	}

	raws, newMark, err := i.log.Read(segment, mark)
	if err != nil {
		return res, fmt.Errorf("read segment: %w", err)
	}
	if len(raws) == 0 && newMark == mark {
		return res, nil
	}

	err = i.store.RunInTransaction(ctx, func(tx store.Store) error {
		for _, raw := range raws {
			event := i.classifier.Classify(raw)
			added, err := tx.InsertEvent(ctx, &event)
			if err != nil {
				return fmt.Errorf("insert %s: %w", raw.ID, err)
			}
			if added {
				res.Added++
			} else {
				res.SkippedDuplicate++
			}
		}
		return tx.SetImportMark(ctx, segment, newMark)
	})
	if err != nil {
		return Result{}, err
	}

	i.logger.Info("imported segment",
		"segment", segment, "added", res.Added, "duplicates", res.SkippedDuplicate)
	return res, nil
}
