// Package base materializes digest-pinned base filesystems from a local catalog.
package base

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	slimfs "go.trai.ch/slim/internal/adapters/fs"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BaseStore = (*Store)(nil)

// Store implements ports.BaseStore over a catalog directory laid out as
// <dir>/<name>/<digest-hex>/. Each catalog tree must hash to its own digest.
type Store struct {
	dir    string
	fs     ports.Filesystem
	logger ports.Logger

	// verified remembers catalog trees already checked in this process.
	verified sync.Map
}

// NewStore creates a base store reading from the catalog at dir.
func NewStore(dir string, fsys ports.Filesystem, logger ports.Logger) *Store {
	return &Store{dir: dir, fs: fsys, logger: logger}
}

// Materialize copies the base identified by ref into root.
func (s *Store) Materialize(ctx context.Context, ref domain.BaseRef, root string) error {
	if ref.IsScratch() {
		return nil
	}
	if err := ref.Digest.Validate(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrBaseNotPinned.Error()), "base", ref.String())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tree := filepath.Join(s.dir, ref.Name, ref.Digest.Encoded())
	if _, err := os.Stat(tree); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(domain.ErrBaseNotFound, "base", ref.String())
		}
		return zerr.With(zerr.Wrap(err, domain.ErrBaseNotFound.Error()), "base", ref.String())
	}

	if err := s.verify(ref, tree); err != nil {
		return err
	}

	if err := s.fs.CopyTree(tree, root, "."); err != nil {
		return zerr.With(err, "base", ref.String())
	}
	s.logger.Debug("materialized base " + ref.String())
	return nil
}

func (s *Store) verify(ref domain.BaseRef, tree string) error {
	if _, ok := s.verified.Load(tree); ok {
		return nil
	}

	summary, err := slimfs.TreeDigestWith(tree, ref.Digest.Algorithm())
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrBaseDigestMismatch.Error()), "base", ref.String())
	}
	if summary.Digest != ref.Digest {
		return zerr.With(zerr.With(domain.ErrBaseDigestMismatch, "base", ref.String()), "actual", summary.Digest.String())
	}

	s.verified.Store(tree, struct{}{})
	return nil
}
