package installer_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slimfs "go.trai.ch/slim/internal/adapters/fs"
	"go.trai.ch/slim/internal/adapters/installer"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func commandProject(t *testing.T) *domain.Project {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "package.json"), `{"dependencies":{"express":"^4.19.2"}}`)
	writeFile(t, filepath.Join(src, "package-lock.json"), `{}`)
	return &domain.Project{
		DeclaredPath: filepath.Join(src, "package.json"),
		LockPath:     filepath.Join(src, "package-lock.json"),
		Installer: domain.InstallerConfig{
			Kind:   domain.InstallerCommand,
			Target: "node_modules",
			Commands: map[domain.Subset][]string{
				domain.SubsetProduction: {"npm", "ci", "--omit=dev"},
			},
		},
	}
}

func TestCommand_Install(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	project := commandProject(t)
	inst, err := installer.New(project, slimfs.NewFilesystem(), executor, logger)
	require.NoError(t, err)

	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command, _, _ io.Writer) error {
			assert.Equal(t, []string{"npm", "ci", "--omit=dev"}, cmd.Args)
			assert.FileExists(t, filepath.Join(cmd.Dir, "package.json"))
			assert.FileExists(t, filepath.Join(cmd.Dir, "package-lock.json"))
			writeFile(t, filepath.Join(cmd.Dir, "node_modules", "express", "index.js"), "express")
			return nil
		})

	dest := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.Mkdir(dest, 0o750))

	require.NoError(t, inst.Install(context.Background(), &domain.Manifest{}, domain.SubsetProduction, dest))
	assert.FileExists(t, filepath.Join(dest, "express", "index.js"))
}

func TestCommand_Install_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	project := commandProject(t)
	inst := installer.NewCommand(project.Installer, project.DeclaredPath, project.LockPath, executor, logger)

	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.Command, stdout, _ io.Writer) error {
			_, _ = io.WriteString(stdout, "npm ERR! lockfile out of date\n")
			return errors.New("exit status 1")
		})

	err := inst.Install(context.Background(), &domain.Manifest{}, domain.SubsetProduction, t.TempDir())
	assert.ErrorContains(t, err, domain.ErrInstallFailed.Error())
}

func TestCommand_Install_UnconfiguredSubset(t *testing.T) {
	ctrl := gomock.NewController(t)
	project := commandProject(t)
	inst := installer.NewCommand(project.Installer, project.DeclaredPath, project.LockPath,
		mocks.NewMockExecutor(ctrl), mocks.NewMockLogger(ctrl))

	err := inst.Install(context.Background(), &domain.Manifest{}, domain.SubsetFull, t.TempDir())
	assert.ErrorContains(t, err, domain.ErrInstallFailed.Error())
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := installer.New(&domain.Project{Installer: domain.InstallerConfig{Kind: "pip"}}, nil, nil, nil)
	assert.ErrorContains(t, err, domain.ErrInvalidConfig.Error())
}
