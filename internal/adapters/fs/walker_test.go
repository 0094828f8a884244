package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/adapters/fs"
)

func mustWrite(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestWalker_WalkFiles(t *testing.T) {
	tmpDir := t.TempDir()

	mustWrite(t, tmpDir, ".git/config", "git config")
	mustWrite(t, tmpDir, ".slim/store/x.json", "{}")
	mustWrite(t, tmpDir, "ignored/file", "ignored content")
	mustWrite(t, tmpDir, "src/main.go", "package main")
	mustWrite(t, tmpDir, "src/main.log", "log")
	mustWrite(t, tmpDir, "README.md", "# Readme")

	walker := fs.NewWalker()

	var files []string
	for path := range walker.WalkFiles(tmpDir, []string{"ignored", "*.log"}) {
		rel, err := filepath.Rel(tmpDir, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}

	assert.Equal(t, []string{"README.md", "src/main.go"}, files)
}

func TestWalker_WalkFiles_StopsEarly(t *testing.T) {
	tmpDir := t.TempDir()
	mustWrite(t, tmpDir, "a", "a")
	mustWrite(t, tmpDir, "b", "b")

	count := 0
	for range fs.NewWalker().WalkFiles(tmpDir, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
