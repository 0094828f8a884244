package cas_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/adapters/cas"
	"go.trai.ch/slim/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := cas.NewStore()
	require.NoError(t, err)

	info := domain.BuildInfo{
		BuildID:   "run-1",
		Stage:     "build",
		Role:      domain.RoleBuilder,
		InputHash: "abc",
		Outputs:   map[string]string{"app/dist": "sha256:def"},
		Timestamp: time.Now().Truncate(time.Second).UTC(),
	}

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, store.Put(root, info))

		got, err := store.Get(root, "build")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, info, *got)
	})

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()
		got, err := store.Get(root, "missing-stage")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStore_GetCorrupt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := cas.NewStore()
	require.NoError(t, err)

	require.NoError(t, store.Put(root, domain.BuildInfo{Stage: "deps"}))

	storeDir := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(storeDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	err = os.WriteFile(filepath.Join(storeDir, entries[0].Name()), []byte("{ invalid json"), 0o600)
	require.NoError(t, err)

	_, err = store.Get(root, "deps")
	assert.ErrorContains(t, err, domain.ErrStoreUnmarshalFailed.Error())
}

func TestStore_OmitZero(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := cas.NewStore()
	require.NoError(t, err)

	require.NoError(t, store.Put(root, domain.BuildInfo{Stage: "runtime"}))

	storeDir := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(storeDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(storeDir, entries[0].Name()))
	require.NoError(t, err)

	assert.NotContains(t, string(content), "input_hash")
	assert.NotContains(t, string(content), "timestamp")
	assert.True(t, strings.Contains(string(content), `"stage": "runtime"`))
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := cas.NewStore()
	require.NoError(t, err)

	infos, err := store.List(root)
	require.NoError(t, err)
	assert.Empty(t, infos)

	for _, name := range []string{"runtime", "build", "deps"} {
		require.NoError(t, store.Put(root, domain.BuildInfo{Stage: name, InputHash: "old"}))
	}
	require.NoError(t, store.Put(root, domain.BuildInfo{Stage: "build", InputHash: "new"}))

	infos, err = store.List(root)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "build", infos[0].Stage)
	assert.Equal(t, "new", infos[0].InputHash)
	assert.Equal(t, "deps", infos[1].Stage)
	assert.Equal(t, "runtime", infos[2].Stage)
}
