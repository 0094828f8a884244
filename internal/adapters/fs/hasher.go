package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes stage input fingerprints.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeInputHash computes a single hash over the stage definition, the content
// of its resolved build-context inputs and the digests of its imports.
// File paths enter the hash relative to sourceRoot, so moving the checkout keeps the hash.
func (h *Hasher) ComputeInputHash(stage *domain.Stage, sourceRoot string, inputs, imports []string) (string, error) {
	hasher := xxhash.New()

	h.hashStageDefinition(stage, hasher)

	sortedInputs := slices.Clone(inputs)
	slices.Sort(sortedInputs)
	for _, input := range sortedInputs {
		if err := h.hashPath(sourceRoot, input, hasher); err != nil {
			return "", err
		}
	}
	_, _ = hasher.Write([]byte{0})

	sortedImports := slices.Clone(imports)
	slices.Sort(sortedImports)
	writeList(hasher, sortedImports)

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashStageDefinition(stage *domain.Stage, hasher *xxhash.Digest) {
	writeList(hasher, []string{
		stage.Name,
		string(stage.Role),
		stage.Base.String(),
		stage.Workdir,
		string(stage.Install),
		strconv.FormatBool(stage.TTY),
		stage.User,
	})

	writeList(hasher, stage.Context)

	for _, c := range stage.Copy {
		_, _ = hasher.WriteString(c.From)
		_, _ = hasher.Write([]byte{0})
		writeList(hasher, c.Paths)
	}
	_, _ = hasher.Write([]byte{0})

	if id := stage.Identity; id != nil {
		uid := "auto"
		if id.UID != nil {
			uid = strconv.Itoa(*id.UID)
		}
		writeList(hasher, []string{id.Name, uid, id.HomeDir()})
	}
	_, _ = hasher.Write([]byte{0})

	for _, cmd := range stage.Commands {
		writeList(hasher, cmd)
	}
	_, _ = hasher.Write([]byte{0})

	keys := make([]string, 0, len(stage.Env))
	for k := range stage.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(stage.Env[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	writeList(hasher, stage.Outputs)
	writeList(hasher, stage.Entrypoint)
}

// hashPath hashes a context input, walking it when it is a directory.
func (h *Hasher) hashPath(root, rel string, mainHasher io.Writer) error {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrContextInputNotFound.Error()), "path", rel)
	}

	if !info.IsDir() {
		return h.hashFile(root, path, mainHasher)
	}

	for filePath := range h.walker.WalkFiles(path, nil) {
		if err := h.hashFile(root, filePath, mainHasher); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hasher) hashFile(root, path string, mainHasher io.Writer) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
	}
	_, _ = mainHasher.Write([]byte(filepath.ToSlash(rel)))
	_, _ = mainHasher.Write([]byte{0})

	info, err := os.Lstat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read symlink"), "path", path)
		}
		_, _ = mainHasher.Write([]byte(target))
		_, _ = mainHasher.Write([]byte{0})
		return nil
	}

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}

func writeList(hasher *xxhash.Digest, items []string) {
	for _, item := range items {
		_, _ = hasher.WriteString(item)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}
