// Package fs provides file system adapters for stage roots: walking, hashing,
// copying trees in and harvesting declared outputs.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/slim/internal/core/domain"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every non-directory entry below root in lexical order,
// skipping version control metadata, the slim workspace and ignored names.
// Yielded paths include root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			skip, skipDir := w.shouldSkip(d, ignores)
			if skipDir != nil {
				return skipDir
			}

			if skip || d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

// shouldSkip reports whether a file is ignored, or returns filepath.SkipDir for an ignored directory.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() {
		switch name {
		case ".git", ".jj", domain.SlimDirName:
			return false, filepath.SkipDir
		}
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return false, filepath.SkipDir
			}
			return true, nil
		}
	}

	return false, nil
}
