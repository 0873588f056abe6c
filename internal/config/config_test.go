package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"strmsync/internal/config"
	"strmsync/internal/services"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
[general]
log_dir = "LOGDIR"
state_db = "STATEDB"

[emby]
base_url = "http://media.example:8096"
api_key = "key"
user_id = "user"

[[source]]
name = "movies"
remote_root = "Media/Movies"
mirror_dir = "MIRROR"
interval = 60
`

func renderValid(t *testing.T) string {
	base := t.TempDir()
	out := validConfig
	out = strings.ReplaceAll(out, "LOGDIR", filepath.Join(base, "logs"))
	out = strings.ReplaceAll(out, "STATEDB", filepath.Join(base, "state.db"))
	out = strings.ReplaceAll(out, "MIRROR", filepath.Join(base, "mirror"))
	return out
}

func TestLoadAppliesDefaultsAndNormalizes(t *testing.T) {
	path := writeConfig(t, renderValid(t))

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected resolved existing path, got %q exists=%v", resolved, exists)
	}

	src := cfg.SourceByName("movies")
	if src == nil {
		t.Fatal("expected source movies")
	}
	if src.RemoteRoot != "/Media/Movies" {
		t.Fatalf("remote root not normalized: %q", src.RemoteRoot)
	}
	if src.PlaceholderExtension != ".strm" {
		t.Fatalf("expected default placeholder extension, got %q", src.PlaceholderExtension)
	}
	if src.Concurrency <= 0 {
		t.Fatalf("expected defaulted concurrency, got %d", src.Concurrency)
	}
	if len(src.VideoExtensions) == 0 {
		t.Fatal("expected default video extensions")
	}
	if src.Retry.MaxAttempts != cfg.Retry.MaxAttempts {
		t.Fatalf("expected source to inherit global retry, got %+v", src.Retry)
	}
	if cfg.Emby.PageSize <= 0 {
		t.Fatal("expected defaulted emby page size")
	}
}

func TestLoadRejectsInvalidRegex(t *testing.T) {
	contents := renderValid(t) + "\nexclude_regex = [\"[unclosed\"]\n"
	path := writeConfig(t, contents)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadRejectsDuplicateSourceNames(t *testing.T) {
	base := t.TempDir()
	contents := renderValid(t) + `
[[source]]
name = "movies"
remote_root = "/Media/Other"
mirror_dir = "` + filepath.Join(base, "other") + `"
interval = 60
`
	path := writeConfig(t, contents)

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected duplicate-name error")
	}
}

func TestLoadRequiresTriggerPolicy(t *testing.T) {
	contents := strings.ReplaceAll(renderValid(t), "interval = 60", "interval = 0")
	path := writeConfig(t, contents)

	_, _, _, err := config.Load(path)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing trigger policy, got %v", err)
	}
}

func TestLoadRequiresEmbyWhenSourcesExist(t *testing.T) {
	contents := strings.ReplaceAll(renderValid(t), `api_key = "key"`, `api_key = ""`)
	path := writeConfig(t, contents)

	if _, _, _, err := config.Load(path); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing api key, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, _, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false")
	}
	if len(cfg.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(cfg.Sources))
	}
}

func TestSampleConfigIsNonEmpty(t *testing.T) {
	if config.SampleConfig() == "" {
		t.Fatal("sample config must be embedded")
	}
}
