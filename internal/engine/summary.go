package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"strmsync/internal/plan"
)

// Status reports how a cycle ended.
type Status string

const (
	// StatusCompleted means every action succeeded.
	StatusCompleted Status = "completed"
	// StatusCompletedWithFailures means the cycle ran to the end but some
	// actions failed and will be retried next cycle.
	StatusCompletedWithFailures Status = "completed-with-failures"
	// StatusCancelled means shutdown interrupted the cycle between actions.
	StatusCancelled Status = "cancelled"
	// StatusFailed means a fatal failure aborted the cycle.
	StatusFailed Status = "failed"
)

// Failure records one action that did not succeed.
type Failure struct {
	Kind        plan.ActionKind
	LogicalPath string
	Err         error
}

// Summary is the outcome of one executed cycle.
type Summary struct {
	CycleID    string
	Source     string
	Status     Status
	StartedAt  time.Time
	FinishedAt time.Time

	DirsCreated  int
	FilesCreated int
	FilesUpdated int
	FilesDeleted int
	DirsDeleted  int
	// Skipped counts actions satisfied without touching anything, such as
	// adopting an existing identical placeholder.
	Skipped int

	Failures []Failure
	// Unreachable lists directories whose listing failed after exhausting
	// retries. Their subtrees were skipped and deletions below them withheld.
	Unreachable []string

	mu sync.Mutex
}

func newSummary(cycleID, source string) *Summary {
	if cycleID == "" {
		cycleID = uuid.NewString()
	}
	return &Summary{CycleID: cycleID, Source: source, StartedAt: time.Now()}
}

// Duration returns the cycle's wall-clock time.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Succeeded returns the number of actions that changed the mirror.
func (s *Summary) Succeeded() int {
	return s.DirsCreated + s.FilesCreated + s.FilesUpdated + s.FilesDeleted + s.DirsDeleted
}

// RecordUnreachable notes directories the cycle could not enumerate. A cycle
// that otherwise completed is downgraded since part of the tree went
// unvisited.
func (s *Summary) RecordUnreachable(paths []string) {
	if len(paths) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Unreachable = append(s.Unreachable, paths...)
	if s.Status == StatusCompleted {
		s.Status = StatusCompletedWithFailures
	}
}

// Failed returns the number of recorded failures.
func (s *Summary) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Failures)
}

func (s *Summary) record(kind plan.ActionKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case plan.ActionCreateDir:
		s.DirsCreated++
	case plan.ActionCreateFile:
		s.FilesCreated++
	case plan.ActionUpdateFile:
		s.FilesUpdated++
	case plan.ActionDeleteFile:
		s.FilesDeleted++
	case plan.ActionDeleteDir:
		s.DirsDeleted++
	}
}

func (s *Summary) skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped++
}

func (s *Summary) fail(action plan.Action, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failures = append(s.Failures, Failure{
		Kind:        action.Kind,
		LogicalPath: action.LogicalPath,
		Err:         err,
	})
}
