package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"strmsync/internal/services"
	"strmsync/internal/state"
)

func openStore(t *testing.T) *state.Store {
	t.Helper()
	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAndGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rec := &state.Record{
		Source:          "movies",
		LogicalPath:     "/Movies/Heat.mkv",
		PlaceholderPath: "/library/movies/Movies/Heat.strm",
		Kind:            state.KindFile,
		Fingerprint:     "fp1",
		PlaybackURL:     "http://emby/stream/1",
	}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.Get(ctx, "movies", "/Movies/Heat.mkv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Fingerprint != "fp1" || got.PlaceholderPath != rec.PlaceholderPath {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.LastSyncedAt.IsZero() {
		t.Fatal("expected last_synced_at to be set")
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rec := &state.Record{
		Source: "movies", LogicalPath: "/Movies/Heat.mkv",
		PlaceholderPath: "/library/Heat.strm", Kind: state.KindFile, Fingerprint: "fp1",
	}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	rec.Fingerprint = "fp2"
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	records, err := store.ListBySource(ctx, "movies")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(records) != 1 || records[0].Fingerprint != "fp2" {
		t.Fatalf("expected single updated record, got %+v", records)
	}
}

func TestPlaceholderPathsAreUnique(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := &state.Record{
		Source: "movies", LogicalPath: "/Movies/A.mkv",
		PlaceholderPath: "/library/same.strm", Kind: state.KindFile,
	}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second := &state.Record{
		Source: "movies", LogicalPath: "/Movies/B.mkv",
		PlaceholderPath: "/library/same.strm", Kind: state.KindFile,
	}
	err := store.Upsert(ctx, second)
	if !errors.Is(err, services.ErrStateStore) {
		t.Fatalf("expected state store error for duplicate placeholder path, got %v", err)
	}
}

func TestDeleteRemovesOnlyTarget(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, p := range []string{"/Movies/A.mkv", "/Movies/B.mkv"} {
		rec := &state.Record{Source: "movies", LogicalPath: p, PlaceholderPath: "/lib" + p, Kind: state.KindFile}
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert %s: %v", p, err)
		}
	}
	if err := store.Delete(ctx, "movies", "/Movies/A.mkv"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	records, err := store.ListBySource(ctx, "movies")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(records) != 1 || records[0].LogicalPath != "/Movies/B.mkv" {
		t.Fatalf("unexpected remaining records: %+v", records)
	}
}

func TestSourcesAreIsolated(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	movies := &state.Record{Source: "movies", LogicalPath: "/A.mkv", PlaceholderPath: "/m/A.strm", Kind: state.KindFile}
	shows := &state.Record{Source: "shows", LogicalPath: "/A.mkv", PlaceholderPath: "/s/A.strm", Kind: state.KindFile}
	if err := store.Upsert(ctx, movies); err != nil {
		t.Fatalf("Upsert movies: %v", err)
	}
	if err := store.Upsert(ctx, shows); err != nil {
		t.Fatalf("Upsert shows: %v", err)
	}

	cleared, err := store.Clear(ctx, "movies")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared record, got %d", cleared)
	}

	counts, err := store.CountBySource(ctx)
	if err != nil {
		t.Fatalf("CountBySource: %v", err)
	}
	if counts["shows"] != 1 || counts["movies"] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestGetUntrackedReturnsNil(t *testing.T) {
	store := openStore(t)

	rec, err := store.Get(context.Background(), "movies", "/missing.mkv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for untracked path, got %+v", rec)
	}
}

func TestOpenRejectsCorruptDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	if err := os.WriteFile(path, []byte("this is not a sqlite database at all"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	_, err := state.Open(path)
	if !errors.Is(err, services.ErrStateStore) {
		t.Fatalf("expected state store corruption error, got %v", err)
	}
}
