package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"strmsync/internal/filter"
	"strmsync/internal/logging"
	"strmsync/internal/services"
)

// Snapshot is the filtered view of the remote tree captured by one cycle.
type Snapshot struct {
	// Entries maps logical path to entry for every accepted file and every
	// directory the walker descended into.
	Entries map[string]Entry
	// Unreachable lists logical directory paths whose listing failed after
	// exhausting retries. Their subtrees are unknown, not empty.
	Unreachable []string
}

// UnderUnreachable reports whether logicalPath lies at or below a directory
// marked unreachable. An unreachable root covers every path: when "/" itself
// could not be listed the whole tree is unknown.
func (s *Snapshot) UnderUnreachable(logicalPath string) bool {
	for _, prefix := range s.Unreachable {
		if prefix == "/" {
			return true
		}
		if logicalPath == prefix || strings.HasPrefix(logicalPath, prefix+"/") {
			return true
		}
	}
	return false
}

// Complete reports whether the whole tree enumerated without failures.
func (s *Snapshot) Complete() bool { return len(s.Unreachable) == 0 }

// Walker enumerates a source's remote tree into a Snapshot.
type Walker struct {
	lister Lister
	rules  *filter.Rules
	retry  services.RetryPolicy
	logger *slog.Logger
}

// NewWalker builds a walker bound to one source's lister and filter rules.
func NewWalker(lister Lister, rules *filter.Rules, retry services.RetryPolicy, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Walker{
		lister: lister,
		rules:  rules,
		retry:  retry,
		logger: logging.WithComponent(logger, "remote"),
	}
}

// Snapshot walks the remote tree breadth-first with an explicit queue and
// returns the filtered snapshot. Listing failures that survive retries mark
// the directory unreachable and enumeration continues with its siblings; a
// root resolution failure is returned as an error since nothing can be
// compared without it.
func (w *Walker) Snapshot(ctx context.Context) (*Snapshot, error) {
	var root Entry
	err := services.Retry(ctx, w.retry, func(ctx context.Context) error {
		var rootErr error
		root, rootErr = w.lister.Root(ctx)
		return rootErr
	})
	if err != nil {
		// The lister already classified the failure; re-tagging here would
		// make the error match two sentinels at once.
		return nil, fmt.Errorf("remote: resolve root: %w", err)
	}

	snapshot := &Snapshot{Entries: map[string]Entry{}}
	queue := []Entry{root}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := queue[0]
		queue = queue[1:]

		var children []Entry
		err := services.Retry(ctx, w.retry, func(ctx context.Context) error {
			var listErr error
			children, listErr = w.lister.List(ctx, dir)
			return listErr
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			snapshot.Unreachable = append(snapshot.Unreachable, dir.Path)
			w.logger.Warn("directory unreachable, leaving subtree untouched",
				logging.String("path", dir.Path),
				logging.Error(err),
			)
			continue
		}

		sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })

		for _, child := range children {
			switch child.Kind {
			case KindDirectory:
				if w.rules.PruneDir(child.Path) {
					continue
				}
				snapshot.Entries[child.Path] = child
				queue = append(queue, child)
			case KindFile:
				if !w.rules.AcceptFile(child.Path) {
					continue
				}
				if child.PlaybackURL == "" {
					w.logger.Warn("skipping entry without playback url", logging.String("path", child.Path))
					continue
				}
				snapshot.Entries[child.Path] = child
			}
		}
	}

	sort.Strings(snapshot.Unreachable)
	return snapshot, nil
}
