package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"strmsync/internal/config"
	"strmsync/internal/engine"
	"strmsync/internal/plan"
	"strmsync/internal/remote"
	"strmsync/internal/services"
	"strmsync/internal/state"
	"strmsync/internal/testsupport"
)

func newEngine(t *testing.T, store *state.Store) *engine.Engine {
	t.Helper()
	policy := services.RetryPolicy{MaxAttempts: 1, InitialWait: 1, MaxWait: 1, Multiplier: 1}
	return engine.New("library", store, policy, 4, nil)
}

func newMapper(t *testing.T, mirrorDir string) *plan.Mapper {
	t.Helper()
	src := config.DefaultSource()
	src.Name = "library"
	src.MirrorDir = mirrorDir
	return plan.NewMapper(&src)
}

func snapshotOf(entries ...remote.Entry) *remote.Snapshot {
	snap := &remote.Snapshot{Entries: map[string]remote.Entry{}}
	for _, e := range entries {
		snap.Entries[e.Path] = e
	}
	return snap
}

func file(path, fingerprint, url string) remote.Entry {
	return remote.Entry{Path: path, Kind: remote.KindFile, Fingerprint: fingerprint, PlaybackURL: url}
}

func dir(path string) remote.Entry {
	return remote.Entry{Path: path, Kind: remote.KindDirectory}
}

func TestExecuteCreatesTreeAndRecords(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)
	ctx := context.Background()

	snap := snapshotOf(
		dir("/Movies"),
		dir("/Movies/Heat (1995)"),
		file("/Movies/Heat (1995)/Heat.mkv", "fp1", "http://emby/stream/1"),
	)
	p := plan.Reconcile(snap, nil, newMapper(t, mirror))

	summary, err := eng.Execute(ctx, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.Status != engine.StatusCompleted {
		t.Fatalf("status = %s, failures = %v", summary.Status, summary.Failures)
	}
	if summary.DirsCreated != 2 || summary.FilesCreated != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}

	placeholder := filepath.Join(mirror, "Movies", "Heat (1995)", "Heat.strm")
	content, err := os.ReadFile(placeholder)
	if err != nil {
		t.Fatalf("read placeholder: %v", err)
	}
	if string(content) != "http://emby/stream/1\n" {
		t.Fatalf("placeholder content = %q", content)
	}

	records, err := store.ListBySource(ctx, "library")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestExecuteAdoptsIdenticalExistingFile(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)
	ctx := context.Background()

	target := filepath.Join(mirror, "Heat.strm")
	if err := os.WriteFile(target, []byte("http://emby/stream/1\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	snap := snapshotOf(file("/Heat.mkv", "fp1", "http://emby/stream/1"))
	p := plan.Reconcile(snap, nil, newMapper(t, mirror))

	summary, err := eng.Execute(ctx, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.Status != engine.StatusCompleted || summary.Skipped != 1 || summary.FilesCreated != 0 {
		t.Fatalf("expected adoption without rewrite, got %+v", summary)
	}

	rec, err := store.Get(ctx, "library", "/Heat.mkv")
	if err != nil || rec == nil {
		t.Fatalf("adopted file must be tracked: rec=%v err=%v", rec, err)
	}
}

func TestExecuteRefusesToOverwriteDifferentUntrackedFile(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)
	ctx := context.Background()

	target := filepath.Join(mirror, "Heat.strm")
	if err := os.WriteFile(target, []byte("someone else's data"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	snap := snapshotOf(file("/Heat.mkv", "fp1", "http://emby/stream/1"))
	p := plan.Reconcile(snap, nil, newMapper(t, mirror))

	summary, err := eng.Execute(ctx, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.Status != engine.StatusCompletedWithFailures || len(summary.Failures) != 1 {
		t.Fatalf("expected one recorded failure, got %+v", summary)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(content) != "someone else's data" {
		t.Fatalf("untracked file was modified: %q", content)
	}
	rec, err := store.Get(ctx, "library", "/Heat.mkv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Fatalf("conflicting file must not be tracked, got %+v", rec)
	}
}

func TestExecuteUpdatesPlaceholderContent(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)
	ctx := context.Background()
	mapper := newMapper(t, mirror)

	snap := snapshotOf(file("/Heat.mkv", "fp1", "http://emby/stream/old"))
	if _, err := eng.Execute(ctx, plan.Reconcile(snap, nil, mapper)); err != nil {
		t.Fatalf("initial Execute: %v", err)
	}

	records, err := store.ListBySource(ctx, "library")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	changed := snapshotOf(file("/Heat.mkv", "fp2", "http://emby/stream/new"))
	summary, err := eng.Execute(ctx, plan.Reconcile(changed, records, mapper))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.FilesUpdated != 1 {
		t.Fatalf("expected one update, got %+v", summary)
	}

	content, err := os.ReadFile(filepath.Join(mirror, "Heat.strm"))
	if err != nil {
		t.Fatalf("read placeholder: %v", err)
	}
	if string(content) != "http://emby/stream/new\n" {
		t.Fatalf("placeholder content = %q", content)
	}
	rec, err := store.Get(ctx, "library", "/Heat.mkv")
	if err != nil || rec == nil {
		t.Fatalf("Get: rec=%v err=%v", rec, err)
	}
	if rec.Fingerprint != "fp2" {
		t.Fatalf("record fingerprint = %q", rec.Fingerprint)
	}
}

func TestExecuteDeletesFilesAndPrunesEmptyDirs(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)
	ctx := context.Background()
	mapper := newMapper(t, mirror)

	snap := snapshotOf(
		dir("/Movies"),
		file("/Movies/Heat.mkv", "fp1", "http://emby/stream/1"),
	)
	if _, err := eng.Execute(ctx, plan.Reconcile(snap, nil, mapper)); err != nil {
		t.Fatalf("initial Execute: %v", err)
	}

	records, err := store.ListBySource(ctx, "library")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	summary, err := eng.Execute(ctx, plan.Reconcile(snapshotOf(), records, mapper))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.FilesDeleted != 1 || summary.DirsDeleted != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}

	if _, err := os.Stat(filepath.Join(mirror, "Movies")); !os.IsNotExist(err) {
		t.Fatalf("expected empty tracked dir to be removed, stat err = %v", err)
	}
	remaining, err := store.ListBySource(ctx, "library")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no records left, got %+v", remaining)
	}
}

func TestExecuteKeepsDirHoldingUntrackedContent(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)
	ctx := context.Background()
	mapper := newMapper(t, mirror)

	snap := snapshotOf(
		dir("/Movies"),
		file("/Movies/Heat.mkv", "fp1", "http://emby/stream/1"),
	)
	if _, err := eng.Execute(ctx, plan.Reconcile(snap, nil, mapper)); err != nil {
		t.Fatalf("initial Execute: %v", err)
	}

	stray := filepath.Join(mirror, "Movies", "notes.txt")
	if err := os.WriteFile(stray, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("seed stray file: %v", err)
	}

	records, err := store.ListBySource(ctx, "library")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	summary, err := eng.Execute(ctx, plan.Reconcile(snapshotOf(), records, mapper))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.FilesDeleted != 1 || summary.DirsDeleted != 0 || summary.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}

	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("stray file must survive: %v", err)
	}
	rec, err := store.Get(ctx, "library", "/Movies")
	if err != nil || rec == nil {
		t.Fatalf("non-empty dir must stay tracked: rec=%v err=%v", rec, err)
	}
}

func TestExecuteHonorsCancellation(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := snapshotOf(file("/Heat.mkv", "fp1", "http://emby/stream/1"))
	summary, err := eng.Execute(ctx, plan.Reconcile(snap, nil, newMapper(t, mirror)))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if summary.Status != engine.StatusCancelled {
		t.Fatalf("status = %s", summary.Status)
	}
	if _, statErr := os.Stat(filepath.Join(mirror, "Heat.strm")); !os.IsNotExist(statErr) {
		t.Fatalf("cancelled cycle must not write, stat err = %v", statErr)
	}
}

func TestExecuteLeavesNoTempFilesBehind(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	mirror := t.TempDir()
	eng := newEngine(t, store)
	ctx := context.Background()

	snap := snapshotOf(
		file("/a.mkv", "fp1", "http://emby/stream/1"),
		file("/b.mkv", "fp2", "http://emby/stream/2"),
	)
	if _, err := eng.Execute(ctx, plan.Reconcile(snap, nil, newMapper(t, mirror))); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	entries, err := os.ReadDir(mirror)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
	if len(entries) != 2 {
		t.Fatalf("expected exactly the two placeholders, got %d entries", len(entries))
	}
}
