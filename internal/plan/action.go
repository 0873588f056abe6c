package plan

import (
	"strings"

	"strmsync/internal/remote"
	"strmsync/internal/state"
)

// ActionKind discriminates the filesystem operations a plan can request.
type ActionKind string

const (
	ActionCreateDir  ActionKind = "create-dir"
	ActionCreateFile ActionKind = "create-file"
	ActionUpdateFile ActionKind = "update-file"
	ActionDeleteFile ActionKind = "delete-file"
	ActionDeleteDir  ActionKind = "delete-dir"
)

// Action is one planned filesystem operation.
type Action struct {
	Kind        ActionKind
	LogicalPath string
	// LocalPath is the absolute filesystem path the action operates on.
	LocalPath string
	// Entry carries the remote entry for create and update actions.
	Entry remote.Entry
	// Record carries the tracked record for update and delete actions.
	Record *state.Record
}

// Depth returns the number of path segments below the source root.
func (a Action) Depth() int {
	return strings.Count(a.LogicalPath, "/")
}
