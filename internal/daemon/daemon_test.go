package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"strmsync/internal/config"
	"strmsync/internal/daemon"
	"strmsync/internal/remote"
	"strmsync/internal/testsupport"
)

func fakeFactory(lister *testsupport.FakeLister) daemon.ListerFactory {
	return func(*config.Source) remote.Lister { return lister }
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("file %s never appeared", path)
}

func TestDaemonRunsStartupCycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t)
	lister := testsupport.NewFakeLister()
	lister.File("/Movies/Heat.mkv", "fp1", "http://emby/stream/1")

	d, err := daemon.New(cfg, store, nil, nil, fakeFactory(lister))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	waitForFile(t, filepath.Join(cfg.Sources[0].MirrorDir, "Movies", "Heat.strm"))

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("status should report running")
	}
	if status.Tracked["library"] != 2 {
		t.Fatalf("tracked count = %d, want 2 (dir + file)", status.Tracked["library"])
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t)
	lister := testsupport.NewFakeLister()

	first, err := daemon.New(cfg, store, nil, nil, fakeFactory(lister))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, store, nil, nil, fakeFactory(lister))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance must not acquire the lock")
	}
}

func TestStopReleasesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t)
	lister := testsupport.NewFakeLister()

	d, err := daemon.New(cfg, store, nil, nil, fakeFactory(lister))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()

	again, err := daemon.New(cfg, store, nil, nil, fakeFactory(lister))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := again.Start(ctx); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	again.Stop()
}

func TestTriggerSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t)
	lister := testsupport.NewFakeLister()

	d, err := daemon.New(cfg, store, nil, nil, fakeFactory(lister))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if !d.TriggerSource("library") {
		t.Fatal("expected known source to be triggerable")
	}
	if d.TriggerSource("nope") {
		t.Fatal("unknown source must report false")
	}
}
