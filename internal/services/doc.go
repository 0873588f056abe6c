// Package services holds the shared error taxonomy, retry policy, and
// context annotation helpers used across the sync pipeline.
//
// Errors produced anywhere in the pipeline are tagged with one of the
// sentinel markers below so callers can decide, via errors.Is, whether a
// failure is worth retrying, skips a single entry, or aborts the whole
// cycle. Retry implements the shared exponential-backoff policy applied to
// transient failures.
package services
