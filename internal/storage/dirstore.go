package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Storage errors.
var (
	// ErrUnsafePath is returned when a relative path would resolve
	// outside the store's root directory.
	ErrUnsafePath = errors.New("path escapes the output directory")

	// ErrEmptyPath is returned when an empty relative path is given.
	ErrEmptyPath = errors.New("empty file path")
)

// Modes for created directories and files. Mirrored pages are public
// content; the modes stay fixed rather than configurable.
const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// DirStore writes files under a fixed root directory.
// It implements the persistence side of a mirror run: each page's
// Markdown is stored at its mapped relative path.
type DirStore struct {
	root string
}

// NewDirStore creates a DirStore rooted at dir. The directory is
// created on first write, not here, so a listing-only run never
// touches the filesystem.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// Root returns the store's root directory.
func (s *DirStore) Root() string {
	return s.root
}

// Write stores content at the given slash-separated relative path
// under the root. Parent directories are created as needed.
func (s *DirStore) Write(relPath string, content []byte) error {
	target, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(target, content, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// resolve validates relPath and joins it onto the root.
// Mapped paths are generated from sanitized URL segments and should
// always be local, but config-file overrides feed into the mapping, so
// the store still refuses absolute paths and parent traversal.
func (s *DirStore) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", ErrEmptyPath
	}

	native := filepath.FromSlash(relPath)
	if filepath.IsAbs(native) || !filepath.IsLocal(native) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, relPath)
	}

	return filepath.Join(s.root, native), nil
}
