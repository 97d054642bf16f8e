package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Fato07/knowledge-base/internal/model"
)

// Directories never worth watching. The data dir is excluded separately so
// the pipeline does not observe its own writes.
var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".cache":       true,
}

// FSAdapter converts filesystem change notifications into raw events.
type FSAdapter struct {
	projects *ProjectDetector
}

// NewFSAdapter returns a filesystem adapter.
func NewFSAdapter() *FSAdapter {
	return &FSAdapter{projects: NewProjectDetector()}
}

// Observe builds the raw event for a filesystem mutation.
func (a *FSAdapter) Observe(inv Invocation) (model.RawEvent, error) {
	if inv.File == nil {
		return model.RawEvent{}, fmt.Errorf("fs adapter: invocation has no file change")
	}
	at := inv.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	payload := model.Payload{File: &model.FilePayload{
		Path:   inv.File.Path,
		Change: inv.File.Change,
	}}

	return model.RawEvent{
		ID:         model.ComputeID(model.SourceFilesystem, at, payload.Summary()),
		Source:     model.SourceFilesystem,
		ObservedAt: at,
		Payload:    payload,
		Project:    a.projects.Detect(filepath.Dir(inv.File.Path)),
	}, nil
}

// Watcher is the long-lived background observer driving the FSAdapter from
// fsnotify change notifications.
type Watcher struct {
	adapter  *FSAdapter
	recorder *Recorder
	roots    []string
	exclude  string // data dir; the pipeline's own writes are not activity
	logger   *slog.Logger
}

// NewWatcher builds a watcher over the given root directories.
func NewWatcher(recorder *Recorder, roots []string, exclude string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		adapter:  NewFSAdapter(),
		recorder: recorder,
		roots:    roots,
		exclude:  exclude,
		logger:   logger,
	}
}

// Run watches the roots (and their subdirectories) until ctx is cancelled.
// Watch errors are logged, never fatal: a directory that cannot be watched
// degrades completeness, not correctness.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()

	for _, root := range w.roots {
		w.addTree(fw, root)
	}
	w.logger.Info("fs watcher started", "roots", len(w.roots))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("fs watcher stopping")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fs watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, ev fsnotify.Event) {
	if w.skip(ev.Name) {
		return
	}

	var change model.ChangeKind
	switch {
	case ev.Op.Has(fsnotify.Create):
		change = model.ChangeCreated
		// New directories need their own watch to keep the tree covered.
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.addTree(fw, ev.Name)
			return
		}
	case ev.Op.Has(fsnotify.Write):
		change = model.ChangeModified
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		change = model.ChangeDeleted
	default:
		return // chmod etc.
	}

	raw, err := w.adapter.Observe(Invocation{
		At:   time.Now().UTC(),
		File: &FileChange{Path: ev.Name, Change: change},
	})
	if err != nil {
		w.logger.Warn("fs watcher: observe failed", "path", ev.Name, "err", err)
		return
	}
	w.recorder.Record(ctx, raw)
}

func (w *Watcher) skip(path string) bool {
	if w.exclude != "" && strings.HasPrefix(path, w.exclude) {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree; keep going
		}
		if !d.IsDir() {
			return nil
		}
		if w.skip(path) || ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.logger.Warn("fs watcher: cannot watch", "path", path, "err", err)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("fs watcher: walk failed", "root", root, "err", err)
	}
}
