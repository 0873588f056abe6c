// Package plan compares a remote snapshot against the tracked local state and
// produces the ordered list of filesystem actions that makes the mirror match.
//
// Planning is pure: it touches neither the network nor the filesystem, so the
// same snapshot and records always yield the same plan. Ordering guarantees
// parents before children for creations and children before parents for
// removals. Paths under unreachable remote subtrees are excluded from removal
// because their remote content is unknown, not absent.
package plan
