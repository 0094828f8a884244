package domain

import (
	"bytes"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
)

// ArtifactFile is a single filesystem entry captured from a stage root.
// Directories and symlinks carry no data; symlinks record their target in Link.
type ArtifactFile struct {
	Path string
	Mode fs.FileMode
	UID  int
	GID  int
	Link string
	Data []byte
}

// Artifact is the content-addressed capture of one declared output path of a stage.
type Artifact struct {
	Stage  string
	Path   string
	Files  []ArtifactFile
	Digest digest.Digest
}

// NewArtifact builds an artifact from captured files. Files are ordered by path
// and the digest is computed over the canonical encoding.
func NewArtifact(stage, path string, files []ArtifactFile) Artifact {
	sorted := slices.Clone(files)
	slices.SortFunc(sorted, func(a, b ArtifactFile) int {
		return strings.Compare(a.Path, b.Path)
	})

	a := Artifact{Stage: stage, Path: path, Files: sorted}
	a.Digest = digest.FromBytes(a.Bytes())
	return a
}

// Name returns the artifact identifier "stage:path".
func (a Artifact) Name() string {
	return a.Stage + ":" + a.Path
}

// Bytes returns the canonical encoding of the artifact. It is what the digest is computed over.
func (a Artifact) Bytes() []byte {
	var buf bytes.Buffer
	for _, f := range a.Files {
		fmt.Fprintf(&buf, "%s\x00%o\x00%d\x00%d\x00%s\x00%d\n", f.Path, uint32(f.Mode), f.UID, f.GID, f.Link, len(f.Data))
		buf.Write(f.Data)
	}
	return buf.Bytes()
}

// Size returns the total number of content bytes in the artifact.
func (a Artifact) Size() int64 {
	var n int64
	for _, f := range a.Files {
		n += int64(len(f.Data))
	}
	return n
}

// ArtifactSet is the ordered collection of artifacts produced by a stage.
type ArtifactSet []Artifact

// Lookup returns the artifact whose path covers p.
func (s ArtifactSet) Lookup(p string) (Artifact, bool) {
	for _, a := range s {
		if PathWithin(p, a.Path) {
			return a, true
		}
	}
	return Artifact{}, false
}

// Paths returns the artifact paths of the set.
func (s ArtifactSet) Paths() []string {
	paths := make([]string, len(s))
	for i, a := range s {
		paths[i] = a.Path
	}
	return paths
}

// Files returns every file of the set ordered by path.
func (s ArtifactSet) Files() []ArtifactFile {
	var files []ArtifactFile
	for _, a := range s {
		files = append(files, a.Files...)
	}
	slices.SortFunc(files, func(a, b ArtifactFile) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files
}

// Subtree returns the artifact restricted to files at or below p, re-addressed under stage.
func (a Artifact) Subtree(stage, p string) Artifact {
	var files []ArtifactFile
	for _, f := range a.Files {
		if PathWithin(f.Path, p) {
			files = append(files, f)
		}
	}
	return NewArtifact(stage, p, files)
}
