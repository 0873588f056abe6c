package preflight

import (
	"context"
	"strings"

	"strmsync/internal/config"
	"strmsync/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config: remote
// connectivity plus the filesystem checks of each source.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckEmby(ctx, cfg.Emby)}
	for i := range cfg.Sources {
		results = append(results, RunSourceChecks(&cfg.Sources[i])...)
	}
	return results
}

// RunSourceChecks executes the filesystem checks for one source.
func RunSourceChecks(src *config.Source) []Result {
	results := []Result{
		CheckDirectoryAccess("Mirror directory ("+src.Name+")", src.MirrorDir),
	}
	if src.MinFreeSpaceMiB > 0 {
		results = append(results, CheckFreeSpace("Free space ("+src.Name+")", src.MirrorDir, src.MinFreeSpaceMiB))
	}
	return results
}

// Err converts failed results into a single error, or nil when all passed.
// Filesystem problems are usually a missing mount, so they classify as
// transient rather than fatal.
func Err(results []Result) error {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result.Name+": "+result.Detail)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrTransient, "preflight", "check", strings.Join(failed, "; "), nil)
}
