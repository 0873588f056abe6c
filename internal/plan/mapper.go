package plan

import (
	"path/filepath"
	"strings"

	"strmsync/internal/config"
)

// Mapper translates logical remote paths into filesystem paths under one
// source's mirror directory.
type Mapper struct {
	mirrorDir string
	ext       string
}

// NewMapper builds a mapper for one source.
func NewMapper(src *config.Source) *Mapper {
	return &Mapper{mirrorDir: src.MirrorDir, ext: src.PlaceholderExtension}
}

// FilePath maps a logical media file path to its placeholder path, swapping
// the media extension for the placeholder extension.
func (m *Mapper) FilePath(logicalPath string) string {
	local := m.DirPath(logicalPath)
	if ext := filepath.Ext(local); ext != "" {
		local = strings.TrimSuffix(local, ext)
	}
	return local + m.ext
}

// DirPath maps a logical directory path to its mirror path unchanged.
func (m *Mapper) DirPath(logicalPath string) string {
	rel := filepath.FromSlash(strings.TrimPrefix(logicalPath, "/"))
	return filepath.Join(m.mirrorDir, rel)
}
