package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"strmsync/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// General contains daemon-wide paths and log settings.
type General struct {
	LogDir    string `toml:"log_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	StateDB   string `toml:"state_db"`
}

// Emby contains the remote media server connection settings.
type Emby struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	UserID         string `toml:"user_id"`
	PageSize       int    `toml:"page_size"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Notifications contains Telegram push notification settings.
type Notifications struct {
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
	RequestTimeout   int    `toml:"request_timeout"`
	Cycles           bool   `toml:"cycles"`
	Errors           bool   `toml:"errors"`
}

// Retry configures the shared exponential-backoff policy.
type Retry struct {
	MaxAttempts   int     `toml:"max_attempts"`
	InitialWaitMS int     `toml:"initial_wait_ms"`
	MaxWaitMS     int     `toml:"max_wait_ms"`
	Multiplier    float64 `toml:"multiplier"`
	Jitter        float64 `toml:"jitter"`
}

// Source defines one remote library mirrored into a local directory tree.
type Source struct {
	Name                 string `toml:"name"`
	RemoteRoot           string `toml:"remote_root"`
	RootItemID           string `toml:"root_item_id"`
	MirrorDir            string `toml:"mirror_dir"`
	PlaceholderExtension string `toml:"placeholder_extension"`
	Concurrency          int    `toml:"concurrency"`

	// Trigger policy.
	IntervalSeconds int      `toml:"interval"`
	WatchPaths      []string `toml:"watch_paths"`
	DebounceSeconds int      `toml:"debounce"`

	// Filter rules.
	VideoExtensions  []string `toml:"video_extensions"`
	AudioExtensions  []string `toml:"audio_extensions"`
	IgnoreExtensions []string `toml:"ignore_extensions"`
	IgnoreKeywords   []string `toml:"ignore_keywords"`
	IncludeRegex     []string `toml:"include_regex"`
	ExcludeRegex     []string `toml:"exclude_regex"`

	MinFreeSpaceMiB int64 `toml:"min_free_space_mib"`

	Retry Retry `toml:"retry"`
}

// Config encapsulates all configuration values for strmsync.
type Config struct {
	General       General       `toml:"general"`
	Emby          Emby          `toml:"emby"`
	Notifications Notifications `toml:"notifications"`
	Retry         Retry         `toml:"retry"`
	Sources       []Source      `toml:"source"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/strmsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path, the third whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("strmsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading ~ and returns the absolute form of path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// EnsureDirectories creates the directories the daemon needs at startup.
// Mirror roots are created best-effort so the daemon can come up while
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.General.LogDir, filepath.Dir(c.General.StateDB)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, src := range c.Sources {
		if strings.TrimSpace(src.MirrorDir) != "" {
			_ = os.MkdirAll(src.MirrorDir, 0o755)
		}
	}
	return nil
}

// SourceByName returns the source with the given name, or nil.
func (c *Config) SourceByName(name string) *Source {
	for i := range c.Sources {
		if c.Sources[i].Name == name {
			return &c.Sources[i]
		}
	}
	return nil
}

// RetryPolicy converts the TOML retry table into the shared policy type.
func (r Retry) RetryPolicy() services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts: r.MaxAttempts,
		InitialWait: time.Duration(r.InitialWaitMS) * time.Millisecond,
		MaxWait:     time.Duration(r.MaxWaitMS) * time.Millisecond,
		Multiplier:  r.Multiplier,
		Jitter:      r.Jitter,
	}
}

// Interval returns the timer trigger period; zero disables the timer.
func (s *Source) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// Debounce returns the change-event coalescing window.
func (s *Source) Debounce() time.Duration {
	return time.Duration(s.DebounceSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
