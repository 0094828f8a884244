package fs

import (
	_ "crypto/sha256" // register the canonical digest algorithm
	_ "crypto/sha512" // register sha384 and sha512 for package integrity
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
)

// TreeSummary describes the content of a directory tree.
type TreeSummary struct {
	Digest digest.Digest
	Files  int
	Size   int64
}

// TreeDigest computes a sha256 content digest of the tree at dir. It covers relative
// paths, permission and type bits, symlink targets and file contents; ownership
// and timestamps are ignored, as is the mode of dir itself. dir may also be a single file.
func TreeDigest(dir string) (TreeSummary, error) {
	return TreeDigestWith(dir, digest.Canonical)
}

// TreeDigestWith computes the tree digest of dir with the given algorithm.
func TreeDigestWith(dir string, alg digest.Algorithm) (TreeSummary, error) {
	if !alg.Available() {
		return TreeSummary{}, zerr.With(zerr.New("unsupported digest algorithm"), "algorithm", string(alg))
	}
	digester := alg.Digester()
	w := digester.Hash()
	var summary TreeSummary

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." && d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode() & (fs.ModeType | fs.ModePerm)

		var link string
		var size int64
		switch {
		case mode&fs.ModeSymlink != 0:
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		case mode.IsRegular():
			size = info.Size()
		}

		if _, err := fmt.Fprintf(w, "%s\x00%o\x00%s\x00%d\n", rel, uint32(mode), link, size); err != nil {
			return err
		}

		if mode.IsRegular() {
			f, err := os.Open(path) //nolint:gosec // Path comes from walking a trusted tree
			if err != nil {
				return err
			}
			n, err := io.Copy(w, f)
			_ = f.Close()
			if err != nil {
				return err
			}
			summary.Files++
			summary.Size += n
		}
		return nil
	})
	if err != nil {
		return TreeSummary{}, zerr.With(zerr.Wrap(err, "failed to digest tree"), "path", dir)
	}

	summary.Digest = digester.Digest()
	return summary, nil
}
