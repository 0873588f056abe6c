// Package logging builds the slog loggers used by the daemon and CLI.
//
// Two formats are supported: a compact console format that promotes the
// component attribute into the message prefix, and plain JSON for log
// shipping. Attr helpers mirror the slog constructors so call sites stay on
// this package's vocabulary.
package logging
