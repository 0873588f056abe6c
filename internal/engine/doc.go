// Package engine executes sync plans against the local mirror directory.
//
// Actions run in phases that preserve the plan's ordering guarantees:
// directory creations shallow-first, then file creations and updates, then
// file deletions, then directory removals deepest-first. File-level actions
// within a phase run concurrently up to the source's configured limit.
//
// Placeholder writes are atomic: content goes to a temp file in the target
// directory and is renamed into place, so readers never observe a partial
// file. Each action retries transient failures independently; a failed action
// is recorded and the cycle continues, except for state-store failures which
// abort the cycle. Cancellation is honored between actions and phases and
// never interrupts an in-flight write.
package engine
