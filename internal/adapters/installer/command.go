package installer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PackageInstaller = (*Command)(nil)

// maxOutputTail bounds the installer output attached to an error.
const maxOutputTail = 4096

// Command delegates installation to an external package manager.
// The declared manifest and its lock file are copied into a scratch directory,
// the subset's command runs there, and the resulting target directory becomes the tree.
type Command struct {
	config       domain.InstallerConfig
	declaredPath string
	lockPath     string
	executor     ports.Executor
	logger       ports.Logger
}

// NewCommand creates a Command installer for the project's manifest files.
func NewCommand(
	config domain.InstallerConfig,
	declaredPath, lockPath string,
	executor ports.Executor,
	logger ports.Logger,
) *Command {
	return &Command{
		config:       config,
		declaredPath: declaredPath,
		lockPath:     lockPath,
		executor:     executor,
		logger:       logger,
	}
}

// Install runs the configured command for subset and moves its output into dest.
func (c *Command) Install(ctx context.Context, manifest *domain.Manifest, subset domain.Subset, dest string) error {
	argv, ok := c.config.Commands[subset]
	if !ok || len(argv) == 0 {
		return zerr.With(zerr.Wrap(domain.ErrInvalidSubset, domain.ErrInstallFailed.Error()), "subset", string(subset))
	}

	scratch, err := os.MkdirTemp(filepath.Dir(dest), "install-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrInstallFailed.Error())
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	for _, src := range []string{c.declaredPath, c.lockPath} {
		if err := copyFile(src, filepath.Join(scratch, filepath.Base(src))); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "file", src)
		}
	}

	c.logger.Debug("installing " + strconv.Itoa(len(manifest.Packages(subset))) + " packages with " + argv[0])

	var output bytes.Buffer
	cmd := &domain.Command{Args: argv, Dir: scratch}
	if err := c.executor.Execute(ctx, cmd, &output, &output); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "output", tail(output.Bytes()))
	}

	target := filepath.Join(scratch, filepath.FromSlash(c.config.Target))
	entries, err := os.ReadDir(target)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "target", c.config.Target)
	}
	for _, e := range entries {
		if err := os.Rename(filepath.Join(target, e.Name()), filepath.Join(dest, e.Name())); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "entry", e.Name())
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // Path comes from the project configuration
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, domain.FilePerm)
}

func tail(b []byte) string {
	if len(b) > maxOutputTail {
		b = b[len(b)-maxOutputTail:]
	}
	return string(bytes.TrimSpace(b))
}
