package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"strmsync/internal/config"
	"strmsync/internal/engine"
	"strmsync/internal/filter"
	"strmsync/internal/logging"
	"strmsync/internal/notifications"
	"strmsync/internal/plan"
	"strmsync/internal/preflight"
	"strmsync/internal/remote"
	"strmsync/internal/services"
	"strmsync/internal/state"
)

// Syncer runs sync cycles for one source.
type Syncer struct {
	source   *config.Source
	walker   *remote.Walker
	mapper   *plan.Mapper
	store    *state.Store
	engine   *engine.Engine
	notifier notifications.Service
	logger   *slog.Logger
}

// New wires a syncer from the source's config, its remote lister, and the
// shared state store.
func New(src *config.Source, lister remote.Lister, store *state.Store, notifier notifications.Service, logger *slog.Logger) (*Syncer, error) {
	rules, err := filter.Compile(src)
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	policy := src.Retry.RetryPolicy()
	return &Syncer{
		source:   src,
		walker:   remote.NewWalker(lister, rules, policy, logger),
		mapper:   plan.NewMapper(src),
		store:    store,
		engine:   engine.New(src.Name, store, policy, src.Concurrency, logger),
		notifier: notifier,
		logger:   logging.WithComponent(logger, "syncer"),
	}, nil
}

// Run executes one full cycle and returns its summary. Per-entry failures are
// collected in the summary; the returned error covers failures that aborted
// the cycle before or during execution.
func (s *Syncer) Run(ctx context.Context) (*engine.Summary, error) {
	cycleID := uuid.NewString()
	ctx = services.WithSource(ctx, s.source.Name)
	ctx = services.WithCycleID(ctx, cycleID)

	logger := s.logger.With(
		logging.String("source", s.source.Name),
		logging.String("cycle_id", cycleID),
	)
	logger.Info("cycle started")
	started := time.Now()

	summary, err := s.run(ctx, logger)
	if err != nil {
		logger.Error("cycle aborted",
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		if !errors.Is(err, context.Canceled) {
			// Notify outside the cancelled cycle's context so shutdown does
			// not swallow the message.
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if notifyErr := s.notifier.NotifyError(notifyCtx, err, "sync "+s.source.Name); notifyErr != nil {
				logger.Warn("error notification failed", logging.Error(notifyErr))
			}
		}
		return summary, err
	}

	logger.Info("cycle finished",
		logging.String("status", string(summary.Status)),
		logging.Int("dirs_created", summary.DirsCreated),
		logging.Int("files_created", summary.FilesCreated),
		logging.Int("files_updated", summary.FilesUpdated),
		logging.Int("files_deleted", summary.FilesDeleted),
		logging.Int("dirs_deleted", summary.DirsDeleted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed()),
		logging.Int("unreachable", len(summary.Unreachable)),
		logging.Duration("elapsed", summary.Duration()),
	)
	if notifyErr := s.notifier.NotifyCycleCompleted(ctx, summary); notifyErr != nil {
		logger.Warn("cycle notification failed", logging.Error(notifyErr))
	}
	return summary, nil
}

func (s *Syncer) run(ctx context.Context, logger *slog.Logger) (*engine.Summary, error) {
	if err := preflight.Err(preflight.RunSourceChecks(s.source)); err != nil {
		return nil, err
	}

	snapshot, err := s.walker.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !snapshot.Complete() {
		logger.Warn("snapshot incomplete, unreachable subtrees are protected",
			logging.Int("unreachable", len(snapshot.Unreachable)),
		)
	}

	records, err := s.store.ListBySource(ctx, s.source.Name)
	if err != nil {
		return nil, err
	}

	p := plan.Reconcile(snapshot, records, s.mapper)
	if p.Empty() {
		logger.Info("mirror already in sync",
			logging.Int("remote_entries", len(snapshot.Entries)),
			logging.Int("tracked", len(records)),
		)
	} else {
		logger.Info("plan computed",
			logging.Int("create_dirs", len(p.CreateDirs)),
			logging.Int("create_files", len(p.CreateFiles)),
			logging.Int("update_files", len(p.UpdateFiles)),
			logging.Int("delete_files", len(p.DeleteFiles)),
			logging.Int("delete_dirs", len(p.DeleteDirs)),
		)
	}

	summary, err := s.engine.Execute(ctx, p)
	if summary != nil {
		summary.RecordUnreachable(snapshot.Unreachable)
	}
	return summary, err
}
