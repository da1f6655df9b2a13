package ports

import "go.trai.ch/shade/internal/core/domain"

// BuildRecordStore defines the interface for storing and retrieving build records.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildRecordStore interface {
	// Get retrieves the record of an artifact by identifier under the project root.
	// Returns nil, nil if not found.
	Get(root, identifier string) (*domain.BuildRecord, error)

	// Put stores the record under the project root.
	Put(root string, record domain.BuildRecord) error

	// List returns every record stored under the project root ordered by identifier.
	List(root string) ([]domain.BuildRecord, error)
}
