package remote

import "context"

// Kind discriminates remote entry types.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "dir"
)

// Entry is one node of the remote tree, produced fresh on every listing.
type Entry struct {
	// ID is the remote server's opaque identifier for the item.
	ID string
	// Path is the slash-separated logical path relative to the source root,
	// always starting with "/".
	Path string
	Kind Kind
	// Size in bytes; files only.
	Size int64
	// Fingerprint is the remote change marker (version tag or modification
	// time) used to detect updates between cycles.
	Fingerprint string
	// PlaybackURL is the resolved direct-play URL; files only.
	PlaybackURL string
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDirectory }

// Lister produces remote entries for one source. Implementations resolve the
// source root and list immediate children of a directory; the Walker handles
// recursion, retries, and filtering.
type Lister interface {
	// Root resolves the source's remote root directory.
	Root(ctx context.Context) (Entry, error)
	// List returns the immediate children of dir with Path already joined
	// onto dir.Path. Order must be deterministic within one run.
	List(ctx context.Context, dir Entry) ([]Entry, error)
}
