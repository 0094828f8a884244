package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/adapters/fs"
	"go.trai.ch/slim/internal/core/domain"
)

func TestResolver_ResolveInputs(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	mustWrite(t, rootDir, "package.json", "{}")
	mustWrite(t, rootDir, "src/index.ts", "export {}")
	mustWrite(t, rootDir, "src/util.ts", "export {}")
	mustWrite(t, rootDir, "docs/README.md", "# docs")

	resolver := fs.NewResolver()

	t.Run("globs and directories", func(t *testing.T) {
		t.Parallel()
		resolved, err := resolver.ResolveInputs([]string{"src/*.ts", "package.json", "docs"}, rootDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"docs", "package.json", "src/index.ts", "src/util.ts"}, resolved)
	})

	t.Run("deduplication", func(t *testing.T) {
		t.Parallel()
		resolved, err := resolver.ResolveInputs([]string{"src", "src/../src"}, rootDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"src"}, resolved)
	})

	t.Run("escape is clamped to the source root", func(t *testing.T) {
		t.Parallel()
		resolved, err := resolver.ResolveInputs([]string{"../../package.json"}, rootDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"package.json"}, resolved)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		_, err := resolver.ResolveInputs([]string{"src", "*.java"}, rootDir)
		assert.ErrorContains(t, err, domain.ErrContextInputNotFound.Error())
	})
}
