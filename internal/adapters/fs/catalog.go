package fs

import (
	"path/filepath"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceCatalog = (*Catalog)(nil)

// Catalog serves shader sources from the files configured in a project.
type Catalog struct {
	project *domain.Project
}

// NewCatalog creates a Catalog over project. Relative source paths resolve against project.Root.
func NewCatalog(project *domain.Project) *Catalog {
	return &Catalog{project: project}
}

// Source reads the file registered for identifier and stage.
func (c *Catalog) Source(identifier string, stage domain.Stage) ([]string, error) {
	path, ok := c.project.SourcePath(identifier, stage)
	if !ok {
		return nil, zerr.With(zerr.With(domain.NewError(domain.ErrShaderNotFound), "shader", identifier), "stage", stage.String())
	}
	return ReadLines(c.Path(path))
}

// Stages returns the stages registered for identifier in pipeline order.
func (c *Catalog) Stages(identifier string) []domain.Stage {
	return c.project.StagesOf(identifier)
}

// Path resolves a configured source path against the project root.
func (c *Catalog) Path(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.project.Root, path)
}
