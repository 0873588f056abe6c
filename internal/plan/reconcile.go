package plan

import (
	"path"

	"strmsync/internal/remote"
	"strmsync/internal/state"
)

// Reconcile diffs the remote snapshot against the tracked records and returns
// the plan that brings the mirror in line.
//
// Creation and update decisions come from the snapshot; removal decisions
// come from record absence in the snapshot. Untracked local files are never
// planned against, and records under unreachable remote subtrees are left
// alone because their remote state is unknown.
func Reconcile(snapshot *remote.Snapshot, records []*state.Record, mapper *Mapper) *Plan {
	p := &Plan{}

	tracked := make(map[string]*state.Record, len(records))
	for _, rec := range records {
		tracked[rec.LogicalPath] = rec
	}

	// Directories that must exist before file writes, keyed by logical path.
	neededDirs := map[string]bool{}

	for logicalPath, entry := range snapshot.Entries {
		if entry.IsDir() {
			continue
		}
		rec := tracked[logicalPath]
		switch {
		case rec == nil:
			p.CreateFiles = append(p.CreateFiles, Action{
				Kind:        ActionCreateFile,
				LogicalPath: logicalPath,
				LocalPath:   mapper.FilePath(logicalPath),
				Entry:       entry,
			})
			markParents(neededDirs, logicalPath)
		case rec.Fingerprint != entry.Fingerprint || rec.PlaybackURL != entry.PlaybackURL:
			p.UpdateFiles = append(p.UpdateFiles, Action{
				Kind:        ActionUpdateFile,
				LogicalPath: logicalPath,
				LocalPath:   rec.PlaceholderPath,
				Entry:       entry,
				Record:      rec,
			})
		}
	}

	for dir := range neededDirs {
		if rec := tracked[dir]; rec != nil && rec.IsDir() {
			continue
		}
		p.CreateDirs = append(p.CreateDirs, Action{
			Kind:        ActionCreateDir,
			LogicalPath: dir,
			LocalPath:   mapper.DirPath(dir),
		})
	}

	for _, rec := range records {
		if _, present := snapshot.Entries[rec.LogicalPath]; present {
			continue
		}
		if snapshot.UnderUnreachable(rec.LogicalPath) {
			continue
		}
		action := Action{
			LogicalPath: rec.LogicalPath,
			LocalPath:   rec.PlaceholderPath,
			Record:      rec,
		}
		if rec.IsDir() {
			action.Kind = ActionDeleteDir
			p.DeleteDirs = append(p.DeleteDirs, action)
		} else {
			action.Kind = ActionDeleteFile
			p.DeleteFiles = append(p.DeleteFiles, action)
		}
	}

	p.sort()
	return p
}

// markParents records every ancestor directory of logicalPath up to the
// source root.
func markParents(dirs map[string]bool, logicalPath string) {
	for dir := path.Dir(logicalPath); dir != "/" && dir != "."; dir = path.Dir(dir) {
		dirs[dir] = true
	}
}
