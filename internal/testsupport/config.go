package testsupport

import (
	"path/filepath"
	"testing"

	"strmsync/internal/config"
)

// NewConfig returns a validated config with temp directories and a single
// source named "library" mirroring into a temp dir.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.General.LogDir = filepath.Join(base, "logs")
	cfg.General.StateDB = filepath.Join(base, "state.db")
	cfg.Emby.BaseURL = "http://emby.test:8096"
	cfg.Emby.APIKey = "test-key"
	cfg.Emby.UserID = "user-1"

	src := config.DefaultSource()
	src.Name = "library"
	src.RemoteRoot = "/Media"
	src.MirrorDir = filepath.Join(base, "mirror")
	cfg.Sources = append(cfg.Sources, src)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
