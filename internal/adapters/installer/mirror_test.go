package installer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slimfs "go.trai.ch/slim/internal/adapters/fs"
	"go.trai.ch/slim/internal/adapters/installer"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

// mirrorFixture builds a mirror holding express (production) and typescript (dev)
// and returns a manifest pinned to their tree digests.
func mirrorFixture(t *testing.T) (string, *domain.Manifest) {
	t.Helper()
	mirror := t.TempDir()
	writeFile(t, filepath.Join(mirror, "express", "4.19.2", "index.js"), "module.exports = express")
	writeFile(t, filepath.Join(mirror, "typescript", "5.4.5", "bin", "tsc"), "compiler")

	integrity := func(rel string) digest.Digest {
		s, err := slimfs.TreeDigest(filepath.Join(mirror, rel))
		require.NoError(t, err)
		return s.Digest
	}

	return mirror, &domain.Manifest{
		Declared: map[string]domain.DeclaredDependency{
			"express":    {Name: "express", Constraint: "^4.19.2"},
			"typescript": {Name: "typescript", Constraint: "^5.4.0", Dev: true},
		},
		Resolved: map[string]domain.ResolvedPackage{
			"express":    {Name: "express", Version: "4.19.2", Integrity: integrity("express/4.19.2")},
			"typescript": {Name: "typescript", Version: "5.4.5", Integrity: integrity("typescript/5.4.5"), Dev: true},
		},
	}
}

func newMirror(t *testing.T, dir string) *installer.Mirror {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return installer.NewMirror(dir, slimfs.NewFilesystem(), logger)
}

func TestMirror_Install_Production(t *testing.T) {
	mirror, manifest := mirrorFixture(t)
	dest := t.TempDir()

	require.NoError(t, newMirror(t, mirror).Install(context.Background(), manifest, domain.SubsetProduction, dest))

	assert.FileExists(t, filepath.Join(dest, "express", "index.js"))
	assert.NoDirExists(t, filepath.Join(dest, "typescript"), "dev packages never reach a production tree")
}

func TestMirror_Install_Full(t *testing.T) {
	mirror, manifest := mirrorFixture(t)
	dest := t.TempDir()

	require.NoError(t, newMirror(t, mirror).Install(context.Background(), manifest, domain.SubsetFull, dest))

	assert.FileExists(t, filepath.Join(dest, "express", "index.js"))
	assert.FileExists(t, filepath.Join(dest, "typescript", "bin", "tsc"))
}

func TestMirror_Install_IntegrityMismatch(t *testing.T) {
	mirror, manifest := mirrorFixture(t)
	writeFile(t, filepath.Join(mirror, "express", "4.19.2", "index.js"), "tampered")

	err := newMirror(t, mirror).Install(context.Background(), manifest, domain.SubsetProduction, t.TempDir())
	assert.ErrorContains(t, err, domain.ErrIntegrityMismatch.Error())
}

func TestMirror_Install_NotInMirror(t *testing.T) {
	mirror, manifest := mirrorFixture(t)
	require.NoError(t, os.RemoveAll(filepath.Join(mirror, "express")))

	err := newMirror(t, mirror).Install(context.Background(), manifest, domain.SubsetProduction, t.TempDir())
	assert.ErrorContains(t, err, domain.ErrPackageNotInMirror.Error())
}

func TestMirror_Install_Canceled(t *testing.T) {
	mirror, manifest := mirrorFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newMirror(t, mirror).Install(ctx, manifest, domain.SubsetFull, t.TempDir())
	assert.ErrorContains(t, err, domain.ErrInstallFailed.Error())
}
