package ports

import "go.trai.ch/shade/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration at path, or discovers it from the working directory when path is empty.
	Load(path string) (*domain.Project, error)
}
