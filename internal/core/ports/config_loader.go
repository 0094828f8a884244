package ports

import "go.trai.ch/slim/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds slim.yaml from the given working directory upwards and returns the project.
	Load(cwd string) (*domain.Project, error)
}
