package testsupport

import (
	"context"
	"path"
	"sync"

	"strmsync/internal/remote"
	"strmsync/internal/services"
)

// FakeLister is a scripted remote.Lister for tests. Dirs maps a directory's
// logical path to its children; Failures makes individual directories fail a
// given number of times (negative means always).
type FakeLister struct {
	mu       sync.Mutex
	Dirs     map[string][]remote.Entry
	Failures map[string]int
	RootErr  error
	Calls    int
}

// NewFakeLister builds an empty scripted lister rooted at "/".
func NewFakeLister() *FakeLister {
	return &FakeLister{
		Dirs:     map[string][]remote.Entry{"/": {}},
		Failures: map[string]int{},
	}
}

// File registers a file entry, creating intermediate directories.
func (f *FakeLister) File(logicalPath, fingerprint, url string) {
	f.addEntry(remote.Entry{
		ID:          logicalPath,
		Path:        logicalPath,
		Kind:        remote.KindFile,
		Size:        int64(len(url)),
		Fingerprint: fingerprint,
		PlaybackURL: url,
	})
}

// Dir registers an (empty) directory entry, creating intermediates.
func (f *FakeLister) Dir(logicalPath string) {
	f.addEntry(remote.Entry{
		ID:   logicalPath,
		Path: logicalPath,
		Kind: remote.KindDirectory,
	})
}

// Remove drops an entry and, for directories, the whole subtree.
func (f *FakeLister) Remove(logicalPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parent := parentPath(logicalPath)
	children := f.Dirs[parent]
	filtered := children[:0]
	for _, child := range children {
		if child.Path != logicalPath {
			filtered = append(filtered, child)
		}
	}
	f.Dirs[parent] = filtered
	delete(f.Dirs, logicalPath)
}

// FailDir makes listing of a directory fail count times (negative: always).
func (f *FakeLister) FailDir(logicalPath string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failures[logicalPath] = count
}

func (f *FakeLister) addEntry(entry remote.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ensureDirLocked(parentPath(entry.Path))
	parent := parentPath(entry.Path)
	for _, existing := range f.Dirs[parent] {
		if existing.Path == entry.Path {
			return
		}
	}
	f.Dirs[parent] = append(f.Dirs[parent], entry)
	if entry.Kind == remote.KindDirectory {
		if _, ok := f.Dirs[entry.Path]; !ok {
			f.Dirs[entry.Path] = []remote.Entry{}
		}
	}
}

func (f *FakeLister) ensureDirLocked(dir string) {
	if dir == "/" || dir == "" {
		return
	}
	if _, ok := f.Dirs[dir]; ok {
		return
	}
	f.ensureDirLocked(parentPath(dir))
	parent := parentPath(dir)
	f.Dirs[parent] = append(f.Dirs[parent], remote.Entry{
		ID:   dir,
		Path: dir,
		Kind: remote.KindDirectory,
	})
	f.Dirs[dir] = []remote.Entry{}
}

// Root implements remote.Lister.
func (f *FakeLister) Root(ctx context.Context) (remote.Entry, error) {
	if f.RootErr != nil {
		return remote.Entry{}, f.RootErr
	}
	return remote.Entry{ID: "root", Path: "/", Kind: remote.KindDirectory}, nil
}

// List implements remote.Lister.
func (f *FakeLister) List(ctx context.Context, dir remote.Entry) ([]remote.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if remaining, ok := f.Failures[dir.Path]; ok && remaining != 0 {
		if remaining > 0 {
			f.Failures[dir.Path] = remaining - 1
		}
		return nil, services.Wrap(services.ErrTransient, "fake", "list", dir.Path, nil)
	}

	children := f.Dirs[dir.Path]
	out := make([]remote.Entry, len(children))
	copy(out, children)
	return out, nil
}

func parentPath(logicalPath string) string {
	parent := path.Dir(logicalPath)
	if parent == "." || parent == "" {
		return "/"
	}
	return parent
}
