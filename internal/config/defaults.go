package config

const (
	defaultLogDir               = "~/.local/share/strmsync/logs"
	defaultLogLevel             = "info"
	defaultLogFormat            = "console"
	defaultStateDB              = "~/.local/share/strmsync/state.db"
	defaultEmbyPageSize         = 500
	defaultEmbyRequestTimeout   = 30
	defaultNotifyRequestTimeout = 10
	defaultRetryMaxAttempts     = 4
	defaultRetryInitialWaitMS   = 500
	defaultRetryMaxWaitMS       = 15000
	defaultRetryMultiplier      = 2.0
	defaultRetryJitter          = 0.2
	defaultConcurrency          = 4
	defaultIntervalSeconds      = 3600
	defaultDebounceSeconds      = 5
	defaultPlaceholderExtension = ".strm"
	defaultMinFreeSpaceMiB      = 64
)

func defaultVideoExtensions() []string {
	return []string{"mkv", "mp4", "avi", "mov", "wmv", "flv", "webm", "m2ts", "ts", "iso"}
}

func defaultAudioExtensions() []string {
	return []string{"flac", "mp3", "m4a", "aac", "ogg", "wav", "ape", "dsf"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		General: General{
			LogDir:    defaultLogDir,
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
			StateDB:   defaultStateDB,
		},
		Emby: Emby{
			PageSize:       defaultEmbyPageSize,
			RequestTimeout: defaultEmbyRequestTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Cycles:         true,
			Errors:         true,
		},
		Retry: Retry{
			MaxAttempts:   defaultRetryMaxAttempts,
			InitialWaitMS: defaultRetryInitialWaitMS,
			MaxWaitMS:     defaultRetryMaxWaitMS,
			Multiplier:    defaultRetryMultiplier,
			Jitter:        defaultRetryJitter,
		},
	}
}

// DefaultSource returns a source seeded with defaults; callers still need to
// fill in Name, RemoteRoot, and MirrorDir.
func DefaultSource() Source {
	return Source{
		PlaceholderExtension: defaultPlaceholderExtension,
		Concurrency:          defaultConcurrency,
		IntervalSeconds:      defaultIntervalSeconds,
		DebounceSeconds:      defaultDebounceSeconds,
		VideoExtensions:      defaultVideoExtensions(),
		AudioExtensions:      defaultAudioExtensions(),
		MinFreeSpaceMiB:      defaultMinFreeSpaceMiB,
	}
}
