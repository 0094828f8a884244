// Package manifest reads dependency manifests and their lock files.
package manifest

import (
	"os"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// declaredFile is the subset of a package.json-style manifest that slim reads.
// JSON documents parse as YAML, so both encodings are accepted.
type declaredFile struct {
	Dependencies    map[string]string `yaml:"dependencies"`
	DevDependencies map[string]string `yaml:"devDependencies"`
}

// lockFile pins every package to an exact version and integrity digest.
type lockFile struct {
	LockfileVersion int                      `yaml:"lockfileVersion"`
	Packages        map[string]lockedPackage `yaml:"packages"`
}

type lockedPackage struct {
	Version   string `yaml:"version"`
	Integrity string `yaml:"integrity"`
	Dev       bool   `yaml:"dev"`
}

// Loader implements ports.ManifestLoader.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses both files and returns the manifest once it is known to be fully pinned.
func (l *Loader) Load(declaredPath, lockPath string) (*domain.Manifest, error) {
	var declared declaredFile
	if err := readYAML(declaredPath, &declared); err != nil {
		return nil, err
	}

	var lock lockFile
	if err := readYAML(lockPath, &lock); err != nil {
		return nil, err
	}

	m := &domain.Manifest{
		Declared: make(map[string]domain.DeclaredDependency, len(declared.Dependencies)+len(declared.DevDependencies)),
		Resolved: make(map[string]domain.ResolvedPackage, len(lock.Packages)),
	}

	for name, constraint := range declared.Dependencies {
		m.Declared[name] = domain.DeclaredDependency{Name: name, Constraint: constraint}
	}
	for name, constraint := range declared.DevDependencies {
		if _, dup := m.Declared[name]; dup {
			continue
		}
		m.Declared[name] = domain.DeclaredDependency{Name: name, Constraint: constraint, Dev: true}
	}

	for name, p := range lock.Packages {
		m.Resolved[name] = domain.ResolvedPackage{
			Name:      name,
			Version:   p.Version,
			Integrity: digest.Digest(p.Integrity),
			Dev:       p.Dev,
		}
	}

	if err := m.Validate(); err != nil {
		return nil, zerr.With(err, "lock", lockPath)
	}

	return m, nil
}

func readYAML(path string, target any) error {
	// #nosec G304 -- path comes from the project configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}
	return nil
}
