// Package daemon wires the long-running side of the pipeline: the
// filesystem watcher and the periodic archive scheduler, guarded by a
// single-instance lock so only one process appends to the shared log.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/Fato07/knowledge-base/internal/capture"
	"github.com/Fato07/knowledge-base/internal/config"
	"github.com/Fato07/knowledge-base/internal/eventlog"
	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/store"
	"github.com/Fato07/knowledge-base/internal/store/sqlite"
	"github.com/Fato07/knowledge-base/internal/sync"
)

// App holds the shared process-lifetime components.
type App struct {
	Config *config.Config
	Log    *eventlog.Log
	Store  store.Store
	Bus    events.Publisher
	Logger *slog.Logger
}

// NewApp opens the log, store, and bus from config. Call Close when done.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	log, err := eventlog.New(cfg.LogDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var bus events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		bus, err = events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			// The bus is optional; run offline rather than refuse to start.
			logger.Warn("bus unavailable, running without notifications", "err", err)
			bus = &events.NoopPublisher{}
		}
	}

	return &App{Config: cfg, Log: log, Store: st, Bus: bus, Logger: logger}, nil
}

// Close releases the store and bus.
func (a *App) Close() error {
	var errs []error
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %v", errs)
	}
	return nil
}

// Daemon is the long-running capture process.
type Daemon struct {
	app   *App
	roots []string
	lock  *Lock
}

// New builds a daemon watching the given root directories.
func New(app *App, roots []string) *Daemon {
	return &Daemon{app: app, roots: roots}
}

// Run acquires the single-instance lock and runs the watcher and archive
// scheduler until ctx is cancelled. The lock is always released on return.
func (d *Daemon) Run(ctx context.Context) error {
	lock, err := Acquire(d.app.Config.LockPath())
	if err != nil {
		return err
	}
	d.lock = lock
	defer lock.Release()

	cfg := d.app.Config
	scheduler := d.scheduler(ctx)
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
	}

	recorder := capture.NewRecorder(d.app.Log, d.app.Bus, d.app.Logger)
	watcher := capture.NewWatcher(recorder, d.roots, cfg.DataDir, d.app.Logger)

	d.app.Logger.Info("daemon started",
		"roots", len(d.roots), "lock", lock.Path(), "archiving", scheduler != nil)
	return watcher.Run(ctx)
}

// scheduler builds the archive scheduler, or nil when archiving is off.
func (d *Daemon) scheduler(ctx context.Context) *sync.Scheduler {
	cfg := d.app.Config
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var destinations []sync.Destination
	if cfg.ArchiveS3Bucket != "" {
		key := path.Join(cfg.ArchiveS3Prefix, "archive.jsonl")
		dest, err := sync.NewS3Destination(ctx,
			cfg.ArchiveS3Bucket, key, cfg.ArchiveS3Region, cfg.ArchiveS3Endpoint)
		if err != nil {
			d.app.Logger.Warn("s3 archive unavailable", "bucket", cfg.ArchiveS3Bucket, "err", err)
		} else {
			destinations = append(destinations, dest)
		}
	}
	destinations = append(destinations, &sync.FileDestination{
		Path: filepath.Join(cfg.DataDir, "archive.jsonl"),
	})

	return sync.NewScheduler(d.app.Store, destinations, cfg.SyncInterval, d.app.Logger)
}
