package fs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Filesystem = (*Filesystem)(nil)

// Filesystem implements ports.Filesystem on the host filesystem.
// Every write into a stage root goes through an os.Root, so symlinks placed
// by a base or a stage command can never redirect a write outside of it.
type Filesystem struct {
	chown bool
}

// NewFilesystem creates a Filesystem. Ownership is applied only when running as root.
func NewFilesystem() *Filesystem {
	return &Filesystem{chown: os.Geteuid() == 0}
}

// NewRoot creates a fresh, empty stage root below dir.
func (f *Filesystem) NewRoot(dir, stage string) (string, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrWorkspaceCreateFailed.Error()), "stage", stage)
	}
	root, err := os.MkdirTemp(dir, stage+"-*")
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrWorkspaceCreateFailed.Error()), "stage", stage)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrWorkspaceCreateFailed.Error()), "stage", stage)
	}
	return abs, nil
}

// RemoveRoot deletes a stage root, restoring write permission on directories
// a stage may have locked down.
func (f *Filesystem) RemoveRoot(root string) error {
	if err := os.RemoveAll(root); err == nil {
		return nil
	}

	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			_ = os.Chmod(p, domain.DirPerm)
		}
		return nil
	})

	if err := os.RemoveAll(root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove stage root"), "path", root)
	}
	return nil
}

// CopyTree copies the host file or directory src to dst below root.
func (f *Filesystem) CopyTree(src, root, dst string) error {
	r, err := os.OpenRoot(root)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "path", root)
	}
	defer r.Close() //nolint:errcheck // Best effort close in defer

	dst = filepath.ToSlash(filepath.Clean(dst))
	if parent := path.Dir(dst); parent != "." {
		if err := r.MkdirAll(parent, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "path", dst)
		}
	}

	var dirs []dirMode
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := path.Join(dst, filepath.ToSlash(rel))

		info, err := d.Info()
		if err != nil {
			return err
		}
		uid, gid := owner(info)

		switch {
		case info.IsDir():
			if err := f.placeDir(r, target); err != nil {
				return err
			}
			dirs = append(dirs, dirMode{path: target, mode: info.Mode().Perm()})
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			if err := f.placeSymlink(r, target, link); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if err := f.copyFile(r, p, target, info.Mode().Perm()|info.Mode()&(fs.ModeSetuid|fs.ModeSetgid|fs.ModeSticky)); err != nil {
				return err
			}
		default:
			// Devices, sockets and pipes are never part of a build input.
			return nil
		}

		f.lchown(r, target, uid, gid)
		return nil
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "path", src)
	}

	return restoreDirModes(r, dirs)
}

// Materialize writes artifact files below root in path order.
func (f *Filesystem) Materialize(root string, files []domain.ArtifactFile) error {
	r, err := os.OpenRoot(root)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "path", root)
	}
	defer r.Close() //nolint:errcheck // Best effort close in defer

	sorted := slices.Clone(files)
	slices.SortFunc(sorted, func(a, b domain.ArtifactFile) int {
		return strings.Compare(a.Path, b.Path)
	})

	var dirs []dirMode
	for _, file := range sorted {
		if parent := path.Dir(file.Path); parent != "." {
			if err := r.MkdirAll(parent, domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "path", file.Path)
			}
		}

		switch {
		case file.Mode.IsDir():
			err = f.placeDir(r, file.Path)
			dirs = append(dirs, dirMode{path: file.Path, mode: file.Mode.Perm()})
		case file.Mode&fs.ModeSymlink != 0:
			err = f.placeSymlink(r, file.Path, file.Link)
		case !file.Mode.IsRegular():
			continue
		default:
			err = f.writeFile(r, file.Path, file.Data, file.Mode.Perm()|file.Mode&(fs.ModeSetuid|fs.ModeSetgid|fs.ModeSticky))
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "path", file.Path)
		}

		f.lchown(r, file.Path, file.UID, file.GID)
	}

	return restoreDirModes(r, dirs)
}

// Harvest captures the declared output paths of root.
func (f *Filesystem) Harvest(root, stage string, paths []string) (domain.ArtifactSet, error) {
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHarvestFailed.Error()), "stage", stage)
	}
	defer r.Close() //nolint:errcheck // Best effort close in defer

	sortedPaths := slices.Clone(paths)
	slices.Sort(sortedPaths)

	set := make(domain.ArtifactSet, 0, len(sortedPaths))
	for _, p := range sortedPaths {
		files, err := harvestPath(r, p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, zerr.With(zerr.With(domain.ErrOutputNotProduced, "stage", stage), "path", p)
			}
			return nil, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrHarvestFailed.Error()), "stage", stage), "path", p)
		}
		set = append(set, domain.NewArtifact(stage, p, files))
	}
	return set, nil
}

func harvestPath(r *os.Root, p string) ([]domain.ArtifactFile, error) {
	info, err := r.Lstat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		file, err := captureFile(r, p, info)
		if err != nil {
			return nil, err
		}
		return []domain.ArtifactFile{file}, nil
	}

	var files []domain.ArtifactFile
	err = fs.WalkDir(r.FS(), p, func(walked string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		file, err := captureFile(r, walked, info)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	return files, err
}

func captureFile(r *os.Root, p string, info fs.FileInfo) (domain.ArtifactFile, error) {
	uid, gid := owner(info)
	file := domain.ArtifactFile{
		Path: p,
		Mode: info.Mode() & (fs.ModeType | fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky),
		UID:  uid,
		GID:  gid,
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		link, err := r.Readlink(p)
		if err != nil {
			return file, err
		}
		file.Link = link
	case info.Mode().IsRegular():
		data, err := r.ReadFile(p)
		if err != nil {
			return file, err
		}
		file.Data = data
	}
	return file, nil
}

type dirMode struct {
	path string
	mode fs.FileMode
}

// placeDir creates a directory writable by the owner; final modes are applied
// once every child has been written.
func (f *Filesystem) placeDir(r *os.Root, p string) error {
	if p == "." {
		return nil
	}
	info, err := r.Lstat(p)
	switch {
	case err == nil && info.IsDir():
		return r.Chmod(p, info.Mode().Perm()|0o700)
	case err == nil:
		if err := r.Remove(p); err != nil {
			return err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return r.Mkdir(p, domain.DirPerm|0o700)
}

func (f *Filesystem) placeSymlink(r *os.Root, p, link string) error {
	if err := r.RemoveAll(p); err != nil {
		return err
	}
	return r.Symlink(link, p)
}

func (f *Filesystem) writeFile(r *os.Root, p string, data []byte, mode fs.FileMode) error {
	if err := r.RemoveAll(p); err != nil {
		return err
	}
	if err := r.WriteFile(p, data, mode.Perm()); err != nil {
		return err
	}
	return r.Chmod(p, mode)
}

func (f *Filesystem) copyFile(r *os.Root, src, dst string, mode fs.FileMode) error {
	if err := r.RemoveAll(dst); err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec // Path comes from walking a trusted source tree
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := r.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode.Perm()|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return r.Chmod(dst, mode)
}

func (f *Filesystem) lchown(r *os.Root, p string, uid, gid int) {
	if !f.chown {
		return
	}
	// Best effort: rootless user namespaces may refuse ids that are not mapped.
	_ = r.Lchown(p, uid, gid)
}

func restoreDirModes(r *os.Root, dirs []dirMode) error {
	for _, d := range slices.Backward(dirs) {
		if d.path == "." {
			continue
		}
		if err := r.Chmod(d.path, d.mode); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "path", d.path)
		}
	}
	return nil
}

func owner(info fs.FileInfo) (int, int) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return int(st.Uid), int(st.Gid)
	}
	return 0, 0
}
