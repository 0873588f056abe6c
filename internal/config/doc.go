// Package config loads and validates the TOML configuration.
//
// Load resolves the config path, decodes TOML over the defaults, expands
// home-relative paths, and validates the result. Validation failures are
// configuration errors: the daemon refuses to start a cycle on them. Each
// [[source]] block becomes an immutable Source consumed by the sync
// pipeline; sources inherit the global retry policy unless they override it.
package config
