package ports

import "go.trai.ch/slim/internal/core/domain"

// BuildInfoStore defines the interface for storing and retrieving stage provenance.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Get retrieves the latest build info for a stage.
	// Returns nil, nil if not found.
	Get(root, stage string) (*domain.BuildInfo, error)

	// Put stores the build info.
	Put(root string, info domain.BuildInfo) error

	// List returns the latest build info of every stage, ordered by stage name.
	List(root string) ([]domain.BuildInfo, error)
}
