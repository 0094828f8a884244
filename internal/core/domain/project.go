package domain

// InstallerKind selects the package installer implementation.
type InstallerKind string

const (
	// InstallerMirror installs packages from an offline mirror directory.
	InstallerMirror InstallerKind = "mirror"
	// InstallerCommand delegates installation to an external package manager command.
	InstallerCommand InstallerKind = "command"
)

// InstallerConfig configures how dependency trees are produced.
type InstallerConfig struct {
	Kind     InstallerKind
	Mirror   string
	Commands map[Subset][]string
	Target   string
}

// Project is a loaded slim.yaml.
type Project struct {
	Root         string
	Source       string
	DeclaredPath string
	LockPath     string
	BasesDir     string
	Installer    InstallerConfig
	Graph        *StageGraph
}
