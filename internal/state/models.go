package state

import "time"

// Record kinds. Directories get records only when the engine created them,
// which is what licenses their later removal.
const (
	KindFile = "file"
	KindDir  = "dir"
)

// Record ties one generated placeholder (or engine-created directory) to the
// remote entry it mirrors.
type Record struct {
	ID              int64
	Source          string
	LogicalPath     string
	PlaceholderPath string
	Kind            string
	Fingerprint     string
	PlaybackURL     string
	LastSyncedAt    time.Time
}

// IsDir reports whether the record tracks an engine-created directory.
func (r *Record) IsDir() bool { return r.Kind == KindDir }
