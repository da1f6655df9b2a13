// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/shade/internal/core/domain"
)

// CompileRequest carries a fully expanded shader source to the compiler.
type CompileRequest struct {
	Identifier string
	Stage      domain.Stage
	// Source holds the expanded source lines; include directives are already resolved.
	Source  []string
	Context *domain.CompilerContext
}

// Compiler turns expanded shader source into a compiled shader module.
//
//go:generate go run go.uber.org/mock/mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// Compile compiles the request. Failures wrap domain.ErrCompileFailed.
	//
	// Compile may block and must honour ctx cancellation.
	Compile(ctx context.Context, req CompileRequest) (*domain.ShaderModule, error)
}

// Linker links compiled shader modules into a program.
type Linker interface {
	// Link combines modules, in order, into a program using the feedback layout.
	// The fragments describe how the trailing modules were requested. Failures
	// wrap domain.ErrLinkFailed.
	Link(
		ctx context.Context,
		identifier string,
		modules []*domain.ShaderModule,
		fragments []domain.Fragment,
		layout domain.FeedbackLayout,
	) (*domain.Program, error)
}
