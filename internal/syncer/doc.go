// Package syncer orchestrates one source's sync cycles: preflight, remote
// snapshot, reconciliation, execution, and reporting.
//
// A cycle is the unit of work triggered by the timer, a watch event, or a
// manual run. Each cycle gets a correlation id that flows through logs and
// the returned summary. Cycles never overlap for a single source; the
// trigger layer serializes them.
package syncer
