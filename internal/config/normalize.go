package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeGeneral(); err != nil {
		return err
	}
	c.normalizeEmby()
	c.normalizeRetry()
	for i := range c.Sources {
		if err := c.normalizeSource(&c.Sources[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) normalizeGeneral() error {
	var err error
	if strings.TrimSpace(c.General.LogDir) == "" {
		c.General.LogDir = defaultLogDir
	}
	if c.General.LogDir, err = expandPath(c.General.LogDir); err != nil {
		return fmt.Errorf("general.log_dir: %w", err)
	}
	if strings.TrimSpace(c.General.StateDB) == "" {
		c.General.StateDB = defaultStateDB
	}
	if c.General.StateDB, err = expandPath(c.General.StateDB); err != nil {
		return fmt.Errorf("general.state_db: %w", err)
	}
	c.General.LogLevel = strings.ToLower(strings.TrimSpace(c.General.LogLevel))
	if c.General.LogLevel == "" {
		c.General.LogLevel = defaultLogLevel
	}
	c.General.LogFormat = strings.ToLower(strings.TrimSpace(c.General.LogFormat))
	if c.General.LogFormat == "" {
		c.General.LogFormat = defaultLogFormat
	}
	return nil
}

func (c *Config) normalizeEmby() {
	c.Emby.BaseURL = strings.TrimRight(strings.TrimSpace(c.Emby.BaseURL), "/")
	c.Emby.APIKey = strings.TrimSpace(c.Emby.APIKey)
	c.Emby.UserID = strings.TrimSpace(c.Emby.UserID)
	if c.Emby.PageSize <= 0 {
		c.Emby.PageSize = defaultEmbyPageSize
	}
	if c.Emby.RequestTimeout <= 0 {
		c.Emby.RequestTimeout = defaultEmbyRequestTimeout
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if c.Retry.InitialWaitMS <= 0 {
		c.Retry.InitialWaitMS = defaultRetryInitialWaitMS
	}
	if c.Retry.MaxWaitMS < c.Retry.InitialWaitMS {
		c.Retry.MaxWaitMS = defaultRetryMaxWaitMS
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = defaultRetryMultiplier
	}
}

func (c *Config) normalizeSource(src *Source) error {
	var err error

	src.Name = strings.TrimSpace(src.Name)
	src.RemoteRoot = normalizeLogicalPath(src.RemoteRoot)
	src.RootItemID = strings.TrimSpace(src.RootItemID)

	if src.MirrorDir, err = expandPath(src.MirrorDir); err != nil {
		return fmt.Errorf("source %q mirror_dir: %w", src.Name, err)
	}
	for i := range src.WatchPaths {
		if src.WatchPaths[i], err = expandPath(src.WatchPaths[i]); err != nil {
			return fmt.Errorf("source %q watch_paths: %w", src.Name, err)
		}
	}

	src.PlaceholderExtension = strings.TrimSpace(src.PlaceholderExtension)
	if src.PlaceholderExtension == "" {
		src.PlaceholderExtension = defaultPlaceholderExtension
	}
	if !strings.HasPrefix(src.PlaceholderExtension, ".") {
		src.PlaceholderExtension = "." + src.PlaceholderExtension
	}

	if src.Concurrency <= 0 {
		src.Concurrency = defaultConcurrency
	}
	if src.IntervalSeconds < 0 {
		src.IntervalSeconds = 0
	}
	if src.DebounceSeconds <= 0 {
		src.DebounceSeconds = defaultDebounceSeconds
	}
	if src.MinFreeSpaceMiB < 0 {
		src.MinFreeSpaceMiB = 0
	}

	if len(src.VideoExtensions) == 0 && len(src.AudioExtensions) == 0 {
		src.VideoExtensions = defaultVideoExtensions()
		src.AudioExtensions = defaultAudioExtensions()
	}
	src.VideoExtensions = normalizeExtensions(src.VideoExtensions)
	src.AudioExtensions = normalizeExtensions(src.AudioExtensions)
	src.IgnoreExtensions = normalizeExtensions(src.IgnoreExtensions)

	// Sources inherit the global retry policy unless they override it.
	if src.Retry.MaxAttempts <= 0 {
		src.Retry = c.Retry
	} else {
		if src.Retry.InitialWaitMS <= 0 {
			src.Retry.InitialWaitMS = c.Retry.InitialWaitMS
		}
		if src.Retry.MaxWaitMS < src.Retry.InitialWaitMS {
			src.Retry.MaxWaitMS = c.Retry.MaxWaitMS
		}
		if src.Retry.Multiplier < 1 {
			src.Retry.Multiplier = c.Retry.Multiplier
		}
	}
	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

func normalizeLogicalPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.Trim(p, "/")
	if p == "" {
		return "/"
	}
	return "/" + p
}
