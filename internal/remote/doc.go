// Package remote enumerates a remote media tree into a per-cycle snapshot.
//
// A Lister produces the immediate children of a directory; the Walker drives
// it breadth-first with an explicit queue, applies the source's filter rules,
// and retries failed listings per the shared policy. A directory whose
// listing still fails after retries is marked unreachable in the snapshot:
// the reconciler treats that subtree as unknown rather than empty, so a
// transient outage can never translate into mass deletion.
package remote
