package ports

import "go.trai.ch/slim/internal/core/domain"

// Filesystem manages stage roots and moves files in and out of them.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type Filesystem interface {
	// NewRoot creates a fresh, empty stage root below dir.
	NewRoot(dir, stage string) (string, error)

	// RemoveRoot deletes a stage root.
	RemoveRoot(root string) error

	// CopyTree copies the directory or file at src to dst below root, preserving modes.
	// Writes never leave root, even through symlinks inside it.
	CopyTree(src, root, dst string) error

	// Materialize writes artifact files below root.
	// Ownership is applied when the process is allowed to change it.
	Materialize(root string, files []domain.ArtifactFile) error

	// Harvest captures the declared output paths of root as artifacts of stage.
	// Only declared paths are captured; a missing path is an error.
	Harvest(root, stage string, paths []string) (domain.ArtifactSet, error)
}
