package trigger

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"strmsync/internal/logging"
	"strmsync/internal/services"
)

// Watcher feeds filesystem change events into a notify callback.
type Watcher struct {
	paths  []string
	notify func()
	logger *slog.Logger
}

// NewWatcher builds a watcher over the given paths. notify is called once
// per relevant event; debouncing is the controller's job.
func NewWatcher(paths []string, notify func(), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		paths:  paths,
		notify: notify,
		logger: logging.WithComponent(logger, "watcher"),
	}
}

// Run watches until ctx is cancelled. It fails when no configured path can
// be watched; individual bad paths are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "watcher", "init", "", err)
	}
	defer watcher.Close()

	added := 0
	for _, path := range w.paths {
		if err := watcher.Add(path); err != nil {
			w.logger.Warn("cannot watch path", logging.String("path", path), logging.Error(err))
			continue
		}
		added++
	}
	if added == 0 {
		return services.Wrap(services.ErrConfiguration, "watcher", "init", "no watchable paths", nil)
	}
	w.logger.Info("watching for changes", logging.Int("paths", added))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("filesystem event",
				logging.String("path", event.Name),
				logging.String("op", event.Op.String()),
			)
			w.notify()
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.Error(watchErr))
		}
	}
}
