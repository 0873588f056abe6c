package testsupport

import (
	"path/filepath"
	"testing"

	"strmsync/internal/state"
)

// MustOpenStore opens a fresh state store under a temp directory and closes
// it when the test finishes.
func MustOpenStore(t *testing.T) *state.Store {
	t.Helper()

	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
