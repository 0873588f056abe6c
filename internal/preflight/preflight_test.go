package preflight_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"strmsync/internal/config"
	"strmsync/internal/preflight"
	"strmsync/internal/services"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	if result := preflight.CheckDirectoryAccess("dir", dir); !result.Passed {
		t.Fatalf("expected pass for writable temp dir: %+v", result)
	}
	if result := preflight.CheckDirectoryAccess("dir", filepath.Join(dir, "missing")); result.Passed {
		t.Fatalf("expected failure for missing dir: %+v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if result := preflight.CheckDirectoryAccess("dir", file); result.Passed {
		t.Fatalf("expected failure for non-directory: %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	if result := preflight.CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected at least 1 MiB free in temp dir: %+v", result)
	}
	// No filesystem has an exbibyte to spare.
	if result := preflight.CheckFreeSpace("space", dir, 1<<40); result.Passed {
		t.Fatalf("expected failure for absurd requirement: %+v", result)
	}
}

func TestCheckEmby(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()

	result := preflight.CheckEmby(ctx, config.Emby{BaseURL: server.URL, APIKey: "good"})
	if !result.Passed {
		t.Fatalf("expected pass: %+v", result)
	}

	result = preflight.CheckEmby(ctx, config.Emby{BaseURL: server.URL, APIKey: "bad"})
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure: %+v", result)
	}

	result = preflight.CheckEmby(ctx, config.Emby{APIKey: "good"})
	if result.Passed {
		t.Fatalf("expected failure for missing url: %+v", result)
	}
}

func TestErrAggregatesFailures(t *testing.T) {
	if err := preflight.Err([]preflight.Result{{Name: "a", Passed: true}}); err != nil {
		t.Fatalf("expected nil for passing results, got %v", err)
	}

	err := preflight.Err([]preflight.Result{
		{Name: "a", Passed: true},
		{Name: "b", Detail: "broken"},
	})
	if err == nil || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if !strings.Contains(err.Error(), "b: broken") {
		t.Fatalf("expected failing check named in %v", err)
	}
}
