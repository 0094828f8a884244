package app

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
)

// checkExportDir fails unless out is absent or an empty directory.
// Nothing already present in out may end up next to the exported artifacts.
func checkExportDir(out string) error {
	dir, err := os.Open(out) //nolint:gosec // out is the user-chosen export directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", out)
	}
	defer func() { _ = dir.Close() }()

	names, err := dir.Readdirnames(1)
	if err != nil && !errors.Is(err, io.EOF) {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", out)
	}
	if len(names) > 0 {
		return zerr.With(zerr.With(domain.ErrExportFailed, "path", out), "reason", "output directory is not empty")
	}
	return nil
}

// export writes the final artifact set together with the image configuration into
// a sibling of out, and moves it into place only once it is complete.
// Ownership recorded in the artifacts is applied only when running as root.
func (a *App) export(res *domain.BuildResult, out, initBinary string) error {
	if err := checkExportDir(out); err != nil {
		return err
	}

	parent := filepath.Dir(filepath.Clean(out))
	if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", parent)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(out)+"-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", parent)
	}
	published := false
	defer func() {
		if !published {
			_ = a.filesystem.RemoveRoot(staging)
		}
	}()

	if err := a.writeExport(res, staging, initBinary); err != nil {
		return err
	}

	// An empty out left by the caller is replaced; anything else was refused above.
	if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", out)
	}
	if err := os.Rename(staging, out); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", out)
	}
	published = true
	return nil
}

func (a *App) writeExport(res *domain.BuildResult, dir, initBinary string) error {
	if err := os.Chmod(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrExportFailed.Error())
	}

	if err := a.filesystem.Materialize(dir, res.Final.Files()); err != nil {
		return zerr.Wrap(err, domain.ErrExportFailed.Error())
	}

	if initBinary != "" {
		dst := strings.TrimPrefix(domain.InitPath, "/")
		if err := a.filesystem.CopyTree(initBinary, dir, dst); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "init", initBinary)
		}
	}

	data, err := json.MarshalIndent(res.Image, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrExportFailed.Error())
	}
	path := filepath.Join(dir, domain.ImageConfigFileName)
	if err := os.WriteFile(path, append(data, '\n'), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", path)
	}
	return nil
}
