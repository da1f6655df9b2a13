package ports

import "go.trai.ch/shade/internal/core/domain"

// SourceCatalog provides the raw, unexpanded source of shader identifiers.
//
//go:generate go run go.uber.org/mock/mockgen -source=source_catalog.go -destination=mocks/mock_source_catalog.go -package=mocks
type SourceCatalog interface {
	// Source returns the lines of the source registered for identifier and stage.
	// It fails with domain.ErrShaderNotFound when nothing is registered.
	Source(identifier string, stage domain.Stage) ([]string, error)

	// Stages returns the stages registered for identifier in pipeline order.
	Stages(identifier string) []domain.Stage
}

// IncludeLoader builds an include library from a directory tree.
type IncludeLoader interface {
	// Load registers every file under root in a new, sealed library.
	Load(root string) (*domain.IncludeLibrary, error)
}
