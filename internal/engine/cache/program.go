package cache

import (
	"context"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

// Expander resolves the include directives of a top-level source.
type Expander interface {
	Expand(lines []string, searchPaths []string) ([]string, error)
}

// ProgramBuilder builds objects and linked programs through a Cache.
type ProgramBuilder struct {
	cache    *Cache
	expander Expander
	catalog  ports.SourceCatalog
	compiler ports.Compiler
	linker   ports.Linker
}

// NewProgramBuilder creates a ProgramBuilder.
func NewProgramBuilder(
	cache *Cache,
	expander Expander,
	catalog ports.SourceCatalog,
	compiler ports.Compiler,
	linker ports.Linker,
) *ProgramBuilder {
	return &ProgramBuilder{
		cache:    cache,
		expander: expander,
		catalog:  catalog,
		compiler: compiler,
		linker:   linker,
	}
}

// Cache returns the cache artifacts are stored in.
func (b *ProgramBuilder) Cache() *Cache {
	return b.cache
}

// Expand returns the fully expanded source of identifier's stage under cc.
func (b *ProgramBuilder) Expand(cc *domain.CompilerContext, identifier string, stage domain.Stage) ([]string, error) {
	src, err := b.catalog.Source(identifier, stage)
	if err != nil {
		return nil, err
	}

	lines, err := b.expander.Expand(src, cc.IncludePaths())
	if err != nil {
		return nil, zerr.With(zerr.With(err, "shader", identifier), "stage", stage.String())
	}
	return lines, nil
}

// Object returns the compiled object for identifier's stage, building it on a miss.
// The caller owns one reference and must release it.
func (b *ProgramBuilder) Object(
	ctx context.Context,
	ns domain.Namespace,
	cc *domain.CompilerContext,
	identifier string,
	stage domain.Stage,
) (*Artifact, error) {
	return b.cache.GetOrCreate(ctx, ns, domain.KindObject, cc, identifier, stage,
		func(ctx context.Context, frozen *domain.CompilerContext) (Result, error) {
			lines, err := b.Expand(frozen, identifier, stage)
			if err != nil {
				return Result{}, err
			}

			mod, err := b.compiler.Compile(ctx, ports.CompileRequest{
				Identifier: identifier,
				Stage:      stage,
				Source:     lines,
				Context:    frozen,
			})
			if err != nil {
				return Result{}, err
			}
			return Result{Handle: mod}, nil
		})
}

// Program returns the linked program for identifier, building it on a miss.
//
// A program links every stage registered for identifier followed by the context's
// extra fragments. Objects are compiled under the context without its link-only
// fields so programs differing only in fragments or layout share them.
func (b *ProgramBuilder) Program(
	ctx context.Context,
	ns domain.Namespace,
	cc *domain.CompilerContext,
	identifier string,
) (*Artifact, error) {
	return b.cache.GetOrCreate(ctx, ns, domain.KindProgram, cc, identifier, domain.StageNone,
		func(ctx context.Context, frozen *domain.CompilerContext) (Result, error) {
			return b.link(ctx, ns, frozen, identifier)
		})
}

func (b *ProgramBuilder) link(
	ctx context.Context,
	ns domain.Namespace,
	frozen *domain.CompilerContext,
	identifier string,
) (Result, error) {
	stages := b.catalog.Stages(identifier)
	fragments := frozen.ExtraFragments()
	if len(stages)+len(fragments) == 0 {
		return Result{}, zerr.With(domain.NewError(domain.ErrNoStages), "program", identifier)
	}

	objCtx := frozen.ObjectContext()
	deps := make([]*Artifact, 0, len(stages)+len(fragments))
	modules := make([]*domain.ShaderModule, 0, cap(deps))

	release := func() {
		for _, d := range deps {
			_ = b.cache.Release(d)
		}
	}

	acquire := func(id string, stage domain.Stage) error {
		a, err := b.Object(ctx, ns, objCtx, id, stage)
		if err != nil {
			return err
		}
		deps = append(deps, a)

		mod, ok := a.Module()
		if !ok {
			return zerr.With(zerr.With(domain.NewError(domain.ErrLinkFailed), "shader", id), "reason", "artifact is not a shader module")
		}
		modules = append(modules, mod)
		return nil
	}

	for _, stage := range stages {
		if err := acquire(identifier, stage); err != nil {
			release()
			return Result{}, err
		}
	}
	for _, f := range fragments {
		if err := acquire(f.Identifier, f.Stage); err != nil {
			release()
			return Result{}, zerr.With(err, "program", identifier)
		}
	}

	prog, err := b.linker.Link(ctx, identifier, modules, fragments, frozen.FeedbackLayout())
	if err != nil {
		release()
		return Result{}, err
	}
	return Result{Handle: prog, Deps: deps}, nil
}
