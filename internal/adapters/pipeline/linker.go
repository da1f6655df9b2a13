// Package pipeline links compiled shader modules into programs.
package pipeline

import (
	"context"
	"slices"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Linker = (*Linker)(nil)

// Linker checks that a set of modules forms a usable pipeline and links them.
type Linker struct{}

// NewLinker creates a Linker.
func NewLinker() *Linker {
	return &Linker{}
}

// Link validates the stage combination of modules and returns the linked program.
//
// A program is either a single compute stage or a graphics pipeline that starts
// with a vertex or mesh stage. Every module must still be ready.
func (l *Linker) Link(
	ctx context.Context,
	identifier string,
	modules []*domain.ShaderModule,
	_ []domain.Fragment,
	layout domain.FeedbackLayout,
) (*domain.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, linkError(identifier, "program has no modules")
	}

	stages := make([]domain.Stage, 0, len(modules))
	for _, m := range modules {
		if !m.Ready() {
			return nil, zerr.With(linkError(identifier, "module is not ready"), "shader", m.Identifier)
		}
		stages = append(stages, m.Stage)
	}

	if slices.Contains(stages, domain.StageCompute) {
		if slices.ContainsFunc(stages, func(s domain.Stage) bool { return s != domain.StageCompute }) {
			return nil, linkError(identifier, "compute stage cannot be linked with graphics stages")
		}
		return domain.NewProgram(identifier, modules, layout), nil
	}

	if !slices.Contains(stages, domain.StageVertex) && !slices.Contains(stages, domain.StageMesh) {
		return nil, linkError(identifier, "graphics program has no vertex or mesh stage")
	}
	return domain.NewProgram(identifier, modules, layout), nil
}

func linkError(identifier, reason string) error {
	return zerr.With(zerr.With(domain.NewError(domain.ErrLinkFailed), "program", identifier), "reason", reason)
}
