// Package config provides the configuration loader for slim.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const defaultDepsTarget = "node_modules"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds slim.yaml in cwd or one of its parents and converts it into a domain.Project.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var slimfile Slimfile
	if err := readAndUnmarshalYAML(configPath, &slimfile); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	return l.buildProject(configPath, &slimfile)
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) buildProject(configPath string, f *Slimfile) (*domain.Project, error) {
	root := filepath.Dir(configPath)

	if f.Manifest.Declared == "" || f.Manifest.Lock == "" {
		return nil, zerr.With(domain.ErrInvalidConfig, "reason", "manifest.declared and manifest.lock are required")
	}
	if len(f.Stages) == 0 {
		return nil, zerr.With(domain.ErrInvalidConfig, "reason", "no stages defined")
	}

	installer, err := buildInstaller(root, &f.Installer)
	if err != nil {
		return nil, err
	}

	var identity *domain.IdentitySpec
	if f.Identity != nil {
		if f.Identity.Name == "" {
			return nil, zerr.With(domain.ErrInvalidConfig, "reason", "identity.name is required")
		}
		identity = &domain.IdentitySpec{Name: f.Identity.Name, UID: f.Identity.UID, Home: f.Identity.Home}
	}

	graph := domain.NewStageGraph(installer.Target)

	names := make([]string, 0, len(f.Stages))
	for name := range f.Stages {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		stage, err := buildStage(name, f.Stages[name], identity)
		if err != nil {
			return nil, zerr.With(err, "stage", name)
		}
		if err := graph.AddStage(stage); err != nil {
			return nil, err
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	if f.Version != "" && f.Version != "1" {
		l.Logger.Warn(fmt.Sprintf("unknown %s version %q, reading as version 1", domain.ConfigFileName, f.Version))
	}

	return &domain.Project{
		Root:         root,
		Source:       resolvePath(root, f.Source),
		DeclaredPath: resolvePath(root, f.Manifest.Declared),
		LockPath:     resolvePath(root, f.Manifest.Lock),
		BasesDir:     resolvePath(root, f.Bases),
		Installer:    installer,
		Graph:        graph,
	}, nil
}

func buildInstaller(root string, dto *InstallerDTO) (domain.InstallerConfig, error) {
	cfg := domain.InstallerConfig{
		Kind:     domain.InstallerKind(dto.Kind),
		Target:   dto.Target,
		Commands: make(map[domain.Subset][]string, len(dto.Command)),
	}

	if cfg.Target == "" {
		cfg.Target = defaultDepsTarget
	}
	target, err := domain.CleanPath(cfg.Target)
	if err != nil {
		return cfg, err
	}
	cfg.Target = target

	if cfg.Kind == "" {
		cfg.Kind = domain.InstallerCommand
		if dto.Mirror != "" {
			cfg.Kind = domain.InstallerMirror
		}
	}

	switch cfg.Kind {
	case domain.InstallerMirror:
		if dto.Mirror == "" {
			return cfg, zerr.With(domain.ErrInvalidConfig, "reason", "installer.mirror is required for the mirror installer")
		}
		cfg.Mirror = resolvePath(root, dto.Mirror)
	case domain.InstallerCommand:
		for name, argv := range dto.Command {
			subset, err := domain.ParseSubset(name)
			if err != nil || subset == domain.SubsetNone {
				return cfg, zerr.With(domain.ErrInvalidSubset, "subset", name)
			}
			if len(argv) == 0 {
				return cfg, zerr.With(domain.ErrInvalidConfig, "reason", "empty installer command for "+name)
			}
			cfg.Commands[subset] = argv
		}
	default:
		return cfg, zerr.With(domain.ErrInvalidConfig, "installer_kind", dto.Kind)
	}

	return cfg, nil
}

func buildStage(name string, dto *StageDTO, identity *domain.IdentitySpec) (*domain.Stage, error) {
	if dto == nil {
		return nil, zerr.With(domain.ErrInvalidConfig, "reason", "empty stage")
	}

	role, err := domain.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}

	base, err := domain.ParseBaseRef(dto.Base)
	if err != nil {
		return nil, err
	}

	install, err := domain.ParseSubset(dto.Install)
	if err != nil {
		return nil, err
	}

	stage := &domain.Stage{
		Name:       name,
		Role:       role,
		Base:       base,
		Install:    install,
		Env:        dto.Env,
		User:       dto.User,
		Entrypoint: dto.Entrypoint,
		TTY:        dto.TTY,
	}

	if dto.Workdir != "" {
		if stage.Workdir, err = domain.CleanPath(dto.Workdir); err != nil {
			return nil, err
		}
	}

	if dto.Identity {
		if identity == nil {
			return nil, zerr.With(domain.ErrInvalidConfig, "reason", "stage requests identity but no identity is configured")
		}
		stage.Identity = identity
	}

	for _, run := range dto.Run {
		if len(run) == 0 {
			return nil, zerr.With(domain.ErrInvalidConfig, "reason", "empty command")
		}
		stage.Commands = append(stage.Commands, []string(run))
	}

	if stage.Context, err = cleanPaths(dto.Context); err != nil {
		return nil, err
	}
	if stage.Outputs, err = cleanPaths(dto.Outputs); err != nil {
		return nil, err
	}

	for _, c := range dto.Copy {
		paths, err := cleanPaths(c.Paths)
		if err != nil {
			return nil, err
		}
		if c.From == "" || len(paths) == 0 {
			return nil, zerr.With(domain.ErrInvalidConfig, "reason", "copy requires 'from' and at least one path")
		}
		stage.Copy = append(stage.Copy, domain.CopyIn{From: c.From, Paths: paths})
	}

	return stage, nil
}

func cleanPaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned, err := domain.CleanPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, cleaned)
	}
	return out, nil
}

func resolvePath(root, p string) string {
	if p == "" {
		return filepath.Clean(root)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
