package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"strmsync/internal/logging"
	"strmsync/internal/plan"
	"strmsync/internal/services"
	"strmsync/internal/state"
)

// Engine applies plans for one source.
type Engine struct {
	source      string
	store       *state.Store
	retry       services.RetryPolicy
	concurrency int
	logger      *slog.Logger
}

// New builds an engine bound to one source's store and retry policy.
func New(source string, store *state.Store, retry services.RetryPolicy, concurrency int, logger *slog.Logger) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		source:      source,
		store:       store,
		retry:       retry,
		concurrency: concurrency,
		logger:      logging.WithComponent(logger, "engine"),
	}
}

// Execute runs every action of the plan and returns the cycle summary. The
// returned error is non-nil only for fatal failures and cancellation; ordinary
// per-action failures are collected in the summary and the cycle continues.
func (e *Engine) Execute(ctx context.Context, p *plan.Plan) (*Summary, error) {
	cycleID, _ := services.CycleIDFromContext(ctx)
	summary := newSummary(cycleID, e.source)
	err := e.run(ctx, p, summary)
	summary.FinishedAt = time.Now()

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil):
		summary.Status = StatusCancelled
		return summary, err
	case err != nil:
		summary.Status = StatusFailed
		return summary, err
	case summary.Failed() > 0:
		summary.Status = StatusCompletedWithFailures
	default:
		summary.Status = StatusCompleted
	}
	return summary, nil
}

// run executes the plan's phases in order. Directory waves are sequential so
// parents exist before children; actions within a wave or phase run
// concurrently.
func (e *Engine) run(ctx context.Context, p *plan.Plan, summary *Summary) error {
	for _, wave := range plan.DepthWaves(p.CreateDirs) {
		if err := e.runBatch(ctx, wave, summary); err != nil {
			return err
		}
	}
	if err := e.runBatch(ctx, p.CreateFiles, summary); err != nil {
		return err
	}
	if err := e.runBatch(ctx, p.UpdateFiles, summary); err != nil {
		return err
	}
	if err := e.runBatch(ctx, p.DeleteFiles, summary); err != nil {
		return err
	}
	for _, wave := range plan.ReverseDepthWaves(p.DeleteDirs) {
		if err := e.runBatch(ctx, wave, summary); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runBatch(ctx context.Context, actions []plan.Action, summary *Summary) error {
	if len(actions) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)

	for _, action := range actions {
		action := action
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			err := services.Retry(groupCtx, e.retry, func(ctx context.Context) error {
				return e.apply(ctx, action, summary)
			})
			switch {
			case err == nil:
				return nil
			case groupCtx.Err() != nil:
				return groupCtx.Err()
			case services.Fatal(err):
				summary.fail(action, err)
				return err
			default:
				summary.fail(action, err)
				e.logger.Warn("action failed",
					logging.String("kind", string(action.Kind)),
					logging.String("path", action.LogicalPath),
					logging.Error(err),
				)
				return nil
			}
		})
	}
	return group.Wait()
}

func (e *Engine) apply(ctx context.Context, action plan.Action, summary *Summary) error {
	switch action.Kind {
	case plan.ActionCreateDir:
		return e.createDir(ctx, action, summary)
	case plan.ActionCreateFile:
		return e.createFile(ctx, action, summary)
	case plan.ActionUpdateFile:
		return e.updateFile(ctx, action, summary)
	case plan.ActionDeleteFile:
		return e.deleteFile(ctx, action, summary)
	case plan.ActionDeleteDir:
		return e.deleteDir(ctx, action, summary)
	default:
		return services.Wrap(services.ErrPermanent, "engine", "apply",
			fmt.Sprintf("unknown action kind %q", action.Kind), nil)
	}
}

// createDir makes the directory and tracks it. A directory that already
// exists locally stays untracked: only engine-created directories may be
// removed later.
func (e *Engine) createDir(ctx context.Context, action plan.Action, summary *Summary) error {
	created, err := ensureDir(action.LocalPath)
	if err != nil {
		return err
	}
	if !created {
		summary.skip()
		return nil
	}
	if err := e.store.Upsert(ctx, &state.Record{
		Source:          e.source,
		LogicalPath:     action.LogicalPath,
		PlaceholderPath: action.LocalPath,
		Kind:            state.KindDir,
	}); err != nil {
		return err
	}
	summary.record(action.Kind)
	return nil
}

// createFile writes a new placeholder. An untracked file already at the
// target is adopted when its content matches what would be written and left
// untouched otherwise.
func (e *Engine) createFile(ctx context.Context, action plan.Action, summary *Summary) error {
	content := placeholderContent(action.Entry.PlaybackURL)
	record := &state.Record{
		Source:          e.source,
		LogicalPath:     action.LogicalPath,
		PlaceholderPath: action.LocalPath,
		Kind:            state.KindFile,
		Fingerprint:     action.Entry.Fingerprint,
		PlaybackURL:     action.Entry.PlaybackURL,
	}

	info, err := os.Stat(action.LocalPath)
	switch {
	case err == nil && info.IsDir():
		return services.Wrap(services.ErrPermanent, "engine", "create file",
			fmt.Sprintf("%s exists and is a directory", action.LocalPath), nil)
	case err == nil:
		same, cmpErr := sameContent(action.LocalPath, content)
		if cmpErr != nil {
			return services.Wrap(services.ErrTransient, "engine", "read existing file", action.LocalPath, cmpErr)
		}
		if !same {
			return services.Wrap(services.ErrPermanent, "engine", "create file",
				fmt.Sprintf("refusing to overwrite untracked file %s", action.LocalPath), nil)
		}
		if err := e.store.Upsert(ctx, record); err != nil {
			return err
		}
		summary.skip()
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrTransient, "engine", "stat file", action.LocalPath, err)
	}

	// The parent directory may have been removed externally since planning.
	if err := os.MkdirAll(filepath.Dir(action.LocalPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "engine", "create parent dir", action.LocalPath, err)
	}
	if err := writeAtomic(action.LocalPath, content); err != nil {
		return err
	}
	if err := e.store.Upsert(ctx, record); err != nil {
		return err
	}
	summary.record(action.Kind)
	return nil
}

func (e *Engine) updateFile(ctx context.Context, action plan.Action, summary *Summary) error {
	content := placeholderContent(action.Entry.PlaybackURL)
	if err := writeAtomic(action.LocalPath, content); err != nil {
		return err
	}
	if err := e.store.Upsert(ctx, &state.Record{
		Source:          e.source,
		LogicalPath:     action.LogicalPath,
		PlaceholderPath: action.LocalPath,
		Kind:            state.KindFile,
		Fingerprint:     action.Entry.Fingerprint,
		PlaybackURL:     action.Entry.PlaybackURL,
	}); err != nil {
		return err
	}
	summary.record(action.Kind)
	return nil
}

func (e *Engine) deleteFile(ctx context.Context, action plan.Action, summary *Summary) error {
	if err := removeFile(action.LocalPath); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, e.source, action.LogicalPath); err != nil {
		return err
	}
	summary.record(action.Kind)
	return nil
}

// deleteDir removes a tracked directory only when it is empty. A directory
// still holding untracked content keeps both the directory and its record;
// a later cycle plans it again.
func (e *Engine) deleteDir(ctx context.Context, action plan.Action, summary *Summary) error {
	removed, err := removeDirIfEmpty(action.LocalPath)
	if err != nil {
		return err
	}
	if !removed {
		e.logger.Info("directory not empty, leaving in place", logging.String("path", action.LogicalPath))
		summary.skip()
		return nil
	}
	if err := e.store.Delete(ctx, e.source, action.LogicalPath); err != nil {
		return err
	}
	summary.record(action.Kind)
	return nil
}
