// Package trigger decides when a source's sync cycles run.
//
// A Controller serializes cycles for one source and coalesces trigger
// requests: at most one cycle runs at a time, and any number of requests
// arriving during a run collapse into a single follow-up cycle. Filesystem
// events are debounced so bursts of changes produce one cycle; the interval
// timer and manual triggers fire immediately.
//
// The Watcher feeds local filesystem change events into a controller via
// fsnotify. It is an optional companion for setups where the remote
// library's storage is also mounted locally.
package trigger
