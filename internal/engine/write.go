package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"strmsync/internal/services"
)

// placeholderContent is what a placeholder file holds: the direct-play URL
// and a trailing newline.
func placeholderContent(playbackURL string) []byte {
	return []byte(playbackURL + "\n")
}

// writeAtomic writes content to path via a temp file in the same directory
// and an atomic rename. The temp file is removed on any failure, so an
// interrupted write leaves either the old file or nothing.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".strmsync-*.tmp")
	if err != nil {
		return services.Wrap(services.ErrTransient, "engine", "create temp file", dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(content); err != nil {
		return cleanup(services.Wrap(services.ErrTransient, "engine", "write temp file", tmpName, err))
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(services.Wrap(services.ErrTransient, "engine", "chmod temp file", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return services.Wrap(services.ErrTransient, "engine", "close temp file", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return services.Wrap(services.ErrTransient, "engine", "rename into place", path, err)
	}
	return nil
}

// sameContent reports whether the file at path already holds exactly content.
func sameContent(path string, content []byte) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	existing, err := io.ReadAll(io.LimitReader(file, int64(len(content))+1))
	if err != nil {
		return false, err
	}
	return bytes.Equal(existing, content), nil
}

// removeFile deletes path; a file that is already gone counts as removed.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrTransient, "engine", "remove file", path, err)
	}
	return nil
}

// removeDirIfEmpty deletes path when it holds no entries. It returns
// (false, nil) when the directory still has content, which leaves the
// directory and its record alone for a later cycle.
func removeDirIfEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "engine", "read dir", path, err)
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, services.Wrap(services.ErrTransient, "engine", "remove dir", path, err)
	}
	return true, nil
}

// ensureDir creates path if missing. It returns true when the directory was
// created by this call, false when it already existed.
func ensureDir(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, services.Wrap(services.ErrPermanent, "engine", "create dir",
			fmt.Sprintf("%s exists and is not a directory", path), nil)
	case !errors.Is(err, fs.ErrNotExist):
		return false, services.Wrap(services.ErrTransient, "engine", "stat dir", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, services.Wrap(services.ErrTransient, "engine", "create dir", path, err)
	}
	return true, nil
}
