package ports

import "go.trai.ch/slim/internal/core/domain"

// ManifestLoader defines the interface for reading dependency manifests.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestLoader interface {
	// Load parses the declared manifest and its lock file and verifies the result is fully pinned.
	Load(declaredPath, lockPath string) (*domain.Manifest, error)
}
