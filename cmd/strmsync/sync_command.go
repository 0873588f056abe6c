package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"strmsync/internal/config"
	"strmsync/internal/daemon"
	"strmsync/internal/engine"
	"strmsync/internal/logging"
	"strmsync/internal/notifications"
	"strmsync/internal/state"
	"strmsync/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle for every source (or one) and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShotSync(cmd, ctx, sourceFlag)
		},
	}
	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Sync only the named source")
	return cmd
}

func runOneShotSync(cmd *cobra.Command, ctx *commandContext, sourceName string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sources, err := selectSources(cfg, sourceName)
	if err != nil {
		return err
	}

	// One-shot runs share the daemon's lock so they never race its cycles.
	lock := flock.New(filepath.Join(cfg.General.LogDir, "strmsync.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another strmsync instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	logger, err := logging.New(logging.Options{
		Level:       cfg.General.LogLevel,
		Format:      cfg.General.LogFormat,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := state.Open(cfg.General.StateDB)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	listers := daemon.EmbyListers(cfg.Emby)

	rows := make([][]string, 0, len(sources))
	var firstErr error
	for _, src := range sources {
		s, err := syncer.New(src, listers(src), store, notifier, logger)
		if err != nil {
			return fmt.Errorf("build syncer for %q: %w", src.Name, err)
		}
		summary, runErr := s.Run(signalCtx)
		rows = append(rows, summaryRow(src.Name, summary, runErr))
		if runErr != nil && firstErr == nil {
			firstErr = runErr
		}
		if errors.Is(runErr, context.Canceled) {
			break
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Status", "Created", "Updated", "Deleted", "Skipped", "Failed", "Unreachable", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return firstErr
}

func selectSources(cfg *config.Config, name string) ([]*config.Source, error) {
	if len(cfg.Sources) == 0 {
		return nil, errors.New("no sources configured")
	}
	if name == "" {
		sources := make([]*config.Source, 0, len(cfg.Sources))
		for i := range cfg.Sources {
			sources = append(sources, &cfg.Sources[i])
		}
		return sources, nil
	}
	src := cfg.SourceByName(name)
	if src == nil {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	return []*config.Source{src}, nil
}

func summaryRow(source string, summary *engine.Summary, err error) []string {
	if summary == nil {
		detail := "aborted"
		if err != nil {
			detail = "aborted: " + err.Error()
		}
		return []string{source, detail, "-", "-", "-", "-", "-", "-", "-"}
	}
	created := fmt.Sprintf("%d", summary.DirsCreated+summary.FilesCreated)
	deleted := fmt.Sprintf("%d", summary.FilesDeleted+summary.DirsDeleted)
	return []string{
		source,
		string(summary.Status),
		created,
		strconv.Itoa(summary.FilesUpdated),
		deleted,
		strconv.Itoa(summary.Skipped),
		strconv.Itoa(summary.Failed()),
		strconv.Itoa(len(summary.Unreachable)),
		summary.Duration().Round(time.Millisecond).String(),
	}
}
