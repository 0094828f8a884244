// Package installer produces dependency trees from pinned manifests.
package installer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	slimfs "go.trai.ch/slim/internal/adapters/fs"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PackageInstaller = (*Mirror)(nil)

// Mirror installs packages from an offline mirror laid out as <dir>/<name>/<version>/.
// Each package tree is verified against its pinned integrity digest before it is copied.
type Mirror struct {
	dir    string
	fs     ports.Filesystem
	logger ports.Logger
}

// NewMirror creates a Mirror installer reading from dir.
func NewMirror(dir string, fsys ports.Filesystem, logger ports.Logger) *Mirror {
	return &Mirror{dir: dir, fs: fsys, logger: logger}
}

// Install copies every package of subset into dest/<name>.
func (m *Mirror) Install(ctx context.Context, manifest *domain.Manifest, subset domain.Subset, dest string) error {
	for _, pkg := range manifest.Packages(subset) {
		if err := ctx.Err(); err != nil {
			return zerr.Wrap(err, domain.ErrInstallFailed.Error())
		}

		src := filepath.Join(m.dir, filepath.FromSlash(pkg.Name), pkg.Version)
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return zerr.With(zerr.With(domain.ErrPackageNotInMirror, "package", pkg.Name), "version", pkg.Version)
			}
			return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "package", pkg.Name)
		}

		summary, err := slimfs.TreeDigestWith(src, pkg.Integrity.Algorithm())
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "package", pkg.Name)
		}
		if summary.Digest != pkg.Integrity {
			err := zerr.With(domain.ErrIntegrityMismatch, "package", pkg.Name)
			err = zerr.With(err, "expected", pkg.Integrity.String())
			return zerr.With(err, "actual", summary.Digest.String())
		}

		if err := m.fs.CopyTree(src, dest, filepath.ToSlash(pkg.Name)); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "package", pkg.Name)
		}
		m.logger.Debug("installed " + pkg.Name + "@" + pkg.Version)
	}
	return nil
}
