package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/adapters/fs"
	"go.trai.ch/slim/internal/core/domain"
)

func builderStage() *domain.Stage {
	return &domain.Stage{
		Name:     "build",
		Role:     domain.RoleBuilder,
		Base:     domain.BaseRef{Name: domain.ScratchBase},
		Workdir:  "app",
		Context:  []string{"src"},
		Install:  domain.SubsetFull,
		Commands: [][]string{{"npm", "run", "build"}},
		Env:      map[string]string{"NODE_ENV": "production"},
		Outputs:  []string{"app/dist"},
	}
}

func TestHasher_ComputeInputHash(t *testing.T) {
	hasher := fs.NewHasher(fs.NewWalker())

	t.Run("content change", func(t *testing.T) {
		root := t.TempDir()
		mustWrite(t, root, "src/index.ts", "one")

		h1, err := hasher.ComputeInputHash(builderStage(), root, []string{"src"}, nil)
		require.NoError(t, err)

		mustWrite(t, root, "src/index.ts", "two")
		h2, err := hasher.ComputeInputHash(builderStage(), root, []string{"src"}, nil)
		require.NoError(t, err)

		assert.NotEqual(t, h1, h2)
	})

	t.Run("metadata change", func(t *testing.T) {
		root := t.TempDir()
		mustWrite(t, root, "src/index.ts", "one")

		h1, err := hasher.ComputeInputHash(builderStage(), root, []string{"src"}, nil)
		require.NoError(t, err)

		future := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(root, "src", "index.ts"), future, future))

		h2, err := hasher.ComputeInputHash(builderStage(), root, []string{"src"}, nil)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("location independent", func(t *testing.T) {
		a, b := t.TempDir(), t.TempDir()
		mustWrite(t, a, "src/index.ts", "same")
		mustWrite(t, b, "src/index.ts", "same")

		h1, err := hasher.ComputeInputHash(builderStage(), a, []string{"src"}, nil)
		require.NoError(t, err)
		h2, err := hasher.ComputeInputHash(builderStage(), b, []string{"src"}, nil)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("ordering", func(t *testing.T) {
		root := t.TempDir()
		mustWrite(t, root, "a.txt", "A")
		mustWrite(t, root, "b.txt", "B")

		h1, err := hasher.ComputeInputHash(builderStage(), root, []string{"a.txt", "b.txt"}, []string{"sha256:1", "sha256:2"})
		require.NoError(t, err)
		h2, err := hasher.ComputeInputHash(builderStage(), root, []string{"b.txt", "a.txt"}, []string{"sha256:2", "sha256:1"})
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("definition change", func(t *testing.T) {
		root := t.TempDir()
		mustWrite(t, root, "src/index.ts", "one")

		h1, err := hasher.ComputeInputHash(builderStage(), root, []string{"src"}, nil)
		require.NoError(t, err)

		changed := builderStage()
		changed.Env["NODE_ENV"] = "development"
		h2, err := hasher.ComputeInputHash(changed, root, []string{"src"}, nil)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("import change", func(t *testing.T) {
		root := t.TempDir()
		h1, err := hasher.ComputeInputHash(builderStage(), root, nil, []string{"sha256:1"})
		require.NoError(t, err)
		h2, err := hasher.ComputeInputHash(builderStage(), root, nil, []string{"sha256:2"})
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := hasher.ComputeInputHash(builderStage(), t.TempDir(), []string{"src"}, nil)
		assert.ErrorContains(t, err, domain.ErrContextInputNotFound.Error())
	})
}
