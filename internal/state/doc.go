// Package state persists the mapping between generated placeholder files and
// the remote entries they represent, backed by SQLite.
//
// The store is the single authority over what the execution engine may
// touch: files without a record are never modified or deleted. One record
// exists per placeholder file or engine-created directory, keyed by
// (source, logical path); placeholder paths are globally unique. Records are
// committed one per successfully executed action. Unreadable databases are
// reported as state-store corruption, which aborts the cycle.
package state
