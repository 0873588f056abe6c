package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"strmsync/internal/config"
	"strmsync/internal/logging"
	"strmsync/internal/notifications"
	"strmsync/internal/remote"
	"strmsync/internal/services/emby"
	"strmsync/internal/state"
	"strmsync/internal/syncer"
	"strmsync/internal/trigger"
)

// ListerFactory builds the remote lister for one source.
type ListerFactory func(src *config.Source) remote.Lister

// EmbyListers returns the production factory, sharing one API client across
// all sources.
func EmbyListers(cfg config.Emby) ListerFactory {
	client := emby.NewClient(cfg)
	return func(src *config.Source) remote.Lister { return client.Lister(src) }
}

// Daemon coordinates the background sync services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *state.Store
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	controllers map[string]*trigger.Controller

	running atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	StateDBPath  string
	Tracked      map[string]int64
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *state.Store, notifier notifications.Service, logger *slog.Logger, listers ListerFactory) (*Daemon, error) {
	if cfg == nil || store == nil || listers == nil {
		return nil, errors.New("daemon requires config, store, and lister factory")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.General.LogDir, "strmsync.lock")
	d := &Daemon{
		cfg:         cfg,
		logger:      logging.WithComponent(logger, "daemon"),
		store:       store,
		notifier:    notifier,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
		controllers: map[string]*trigger.Controller{},
	}

	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		s, err := syncer.New(src, listers(src), store, notifier, logger)
		if err != nil {
			return nil, fmt.Errorf("build syncer for %q: %w", src.Name, err)
		}
		run := func(ctx context.Context) {
			// Outcomes are logged and notified inside the syncer; the
			// controller only cares that the cycle ended.
			_, _ = s.Run(ctx)
		}
		d.controllers[src.Name] = trigger.New(src.Name, src.Interval(), src.Debounce(), run, logger)
	}
	return d, nil
}

// Start acquires the daemon lock and launches every source's trigger loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another strmsync instance is already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.group, runCtx = errgroup.WithContext(runCtx)

	for i := range d.cfg.Sources {
		src := &d.cfg.Sources[i]
		controller := d.controllers[src.Name]
		d.group.Go(func() error { return controller.Run(runCtx) })

		if len(src.WatchPaths) > 0 {
			watcher := trigger.NewWatcher(src.WatchPaths, controller.Notify, d.logger)
			d.group.Go(func() error { return watcher.Run(runCtx) })
		}

		// Converge immediately instead of waiting for the first tick.
		controller.Trigger()
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("sources", len(d.cfg.Sources)),
	)
	return nil
}

// Wait blocks until every trigger loop has stopped. Cancellation is the
// normal shutdown path and is not reported as an error.
func (d *Daemon) Wait() error {
	if d.group == nil {
		return nil
	}
	err := d.group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop cancels background processing, waits for in-flight cycles, and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.group != nil {
		_ = d.group.Wait()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Run starts the daemon and blocks until ctx is cancelled or a trigger loop
// fails, then shuts down cleanly.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()
	return d.Wait()
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// TriggerSource requests an immediate cycle for one source. It reports
// whether the source exists.
func (d *Daemon) TriggerSource(name string) bool {
	controller, ok := d.controllers[name]
	if !ok {
		return false
	}
	controller.Trigger()
	return true
}

// TestNotification sends a test message using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	tracked, err := d.store.CountBySource(ctx)
	if err != nil {
		d.logger.Warn("cannot read tracked counts", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		StateDBPath:  d.store.Path(),
		Tracked:      tracked,
	}
}
