package ports

import "go.trai.ch/slim/internal/core/domain"

// Hasher defines the interface for computing stage fingerprints.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// ComputeInputHash fingerprints a stage definition, its resolved build-context
	// inputs under sourceRoot and the digests of everything it imports.
	ComputeInputHash(stage *domain.Stage, sourceRoot string, inputs, imports []string) (string, error)
}
