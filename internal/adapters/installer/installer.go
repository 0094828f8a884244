package installer

import (
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

// New returns the installer configured for the project.
func New(project *domain.Project, fsys ports.Filesystem, executor ports.Executor, logger ports.Logger) (ports.PackageInstaller, error) {
	switch project.Installer.Kind {
	case domain.InstallerMirror:
		return NewMirror(project.Installer.Mirror, fsys, logger), nil
	case domain.InstallerCommand:
		return NewCommand(project.Installer, project.DeclaredPath, project.LockPath, executor, logger), nil
	default:
		return nil, zerr.With(domain.ErrInvalidConfig, "installer", string(project.Installer.Kind))
	}
}
