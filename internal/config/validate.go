package config

import (
	"fmt"
	"regexp"
	"strings"

	"strmsync/internal/services"
)

// Validate ensures the configuration is usable. Failures carry the
// configuration error marker so callers refuse to start a cycle.
func (c *Config) Validate() error {
	if err := c.validateGeneral(); err != nil {
		return err
	}
	if err := c.validateEmby(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	return nil
}

func invalid(format string, args ...any) error {
	return services.Wrap(services.ErrConfiguration, "config", "validate", fmt.Sprintf(format, args...), nil)
}

func (c *Config) validateGeneral() error {
	switch c.General.LogFormat {
	case "console", "json":
	default:
		return invalid("general.log_format must be console or json, got %q", c.General.LogFormat)
	}
	switch c.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("general.log_level must be debug, info, warn, or error, got %q", c.General.LogLevel)
	}
	return nil
}

func (c *Config) validateEmby() error {
	if len(c.Sources) == 0 {
		return nil
	}
	if c.Emby.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/strmsync/config.toml"
		}
		return invalid("emby.base_url is required; edit %s (create with 'strmsync config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Emby.BaseURL, "http://") && !strings.HasPrefix(c.Emby.BaseURL, "https://") {
		return invalid("emby.base_url must start with http:// or https://")
	}
	if c.Emby.APIKey == "" {
		return invalid("emby.api_key is required")
	}
	if c.Emby.UserID == "" {
		return invalid("emby.user_id is required")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	token := strings.TrimSpace(c.Notifications.TelegramBotToken)
	chat := strings.TrimSpace(c.Notifications.TelegramChatID)
	if token != "" && chat == "" {
		return invalid("notifications.telegram_chat_id must be set when a bot token is configured")
	}
	if token == "" && chat != "" {
		return invalid("notifications.telegram_bot_token must be set when a chat id is configured")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return invalid("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSources() error {
	seenNames := map[string]struct{}{}
	seenMirrors := map[string]struct{}{}

	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Name == "" {
			return invalid("source[%d].name must be set", i)
		}
		if _, dup := seenNames[src.Name]; dup {
			return invalid("duplicate source name %q", src.Name)
		}
		seenNames[src.Name] = struct{}{}

		if strings.TrimSpace(src.MirrorDir) == "" {
			return invalid("source %q: mirror_dir must be set", src.Name)
		}
		if _, dup := seenMirrors[src.MirrorDir]; dup {
			return invalid("source %q: mirror_dir %q is already used by another source", src.Name, src.MirrorDir)
		}
		seenMirrors[src.MirrorDir] = struct{}{}

		if len(src.VideoExtensions)+len(src.AudioExtensions) == 0 {
			return invalid("source %q: at least one media extension must be allowed", src.Name)
		}
		for _, pattern := range append(append([]string{}, src.IncludeRegex...), src.ExcludeRegex...) {
			if _, err := regexp.Compile(pattern); err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "validate",
					fmt.Sprintf("source %q: invalid regex %q", src.Name, pattern), err)
			}
		}
		if src.IntervalSeconds == 0 && len(src.WatchPaths) == 0 {
			return invalid("source %q: either interval or watch_paths must be configured", src.Name)
		}
	}
	return nil
}
