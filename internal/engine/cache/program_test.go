package cache_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/shade/internal/core/ports/mocks"
	"go.trai.ch/shade/internal/engine/cache"
	"go.trai.ch/shade/internal/engine/preprocessor"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type programFixture struct {
	builder  *cache.ProgramBuilder
	cache    *cache.Cache
	catalog  *mocks.MockSourceCatalog
	compiler *mocks.MockCompiler
	linker   *mocks.MockLinker
}

func newProgramFixture(t *testing.T) *programFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	lib := domain.NewIncludeLibrary()
	require.NoError(t, lib.Register("/lib/light.glsl", []string{"// light"}))
	lib.Seal()

	f := &programFixture{
		cache:    cache.New(),
		catalog:  mocks.NewMockSourceCatalog(ctrl),
		compiler: mocks.NewMockCompiler(ctrl),
		linker:   mocks.NewMockLinker(ctrl),
	}
	resolver := preprocessor.NewResolver(lib, mocks.NewMockLogger(ctrl))
	f.builder = cache.NewProgramBuilder(f.cache, resolver, f.catalog, f.compiler, f.linker)

	f.catalog.EXPECT().Source(gomock.Any(), gomock.Any()).DoAndReturn(
		func(identifier string, stage domain.Stage) ([]string, error) {
			return []string{"#include <light.glsl>", "// " + identifier + " " + stage.String()}, nil
		}).AnyTimes()
	return f
}

func compileEcho(_ context.Context, req ports.CompileRequest) (*domain.ShaderModule, error) {
	return domain.NewShaderModule(req.Identifier, req.Stage, []byte(strings.Join(req.Source, "\n")), nil), nil
}

func linkAll(
	_ context.Context,
	identifier string,
	modules []*domain.ShaderModule,
	_ []domain.Fragment,
	layout domain.FeedbackLayout,
) (*domain.Program, error) {
	return domain.NewProgram(identifier, modules, layout), nil
}

func programContext(t *testing.T) *domain.CompilerContext {
	t.Helper()
	cc := newContext(t, "FOG")
	require.NoError(t, cc.SetIncludePaths([]string{"/lib"}))
	return cc
}

func TestProgramBuilder_Object(t *testing.T) {
	f := newProgramFixture(t)
	ns := domain.NewNamespace()

	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CompileRequest) (*domain.ShaderModule, error) {
			assert.Equal(t, []string{"// light", "// sprite vertex"}, req.Source)
			assert.True(t, req.Context.IsDefined("FOG"))
			return compileEcho(context.Background(), req)
		}).Times(1)

	a, err := f.builder.Object(context.Background(), ns, programContext(t), "sprite", domain.StageVertex)
	require.NoError(t, err)
	b, err := f.builder.Object(context.Background(), ns, programContext(t), "sprite", domain.StageVertex)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, domain.KindObject, a.Kind())
	assert.Equal(t, "sprite", a.Identifier())
}

func TestProgramBuilder_Program(t *testing.T) {
	f := newProgramFixture(t)
	ns := domain.NewNamespace()

	f.catalog.EXPECT().Stages("sprite").Return([]domain.Stage{domain.StageVertex, domain.StageFragment}).AnyTimes()
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compileEcho).Times(3)

	var linked []domain.Stage
	f.linker.EXPECT().Link(gomock.Any(), "sprite", gomock.Any(), gomock.Any(), domain.FeedbackSeparate).DoAndReturn(
		func(ctx context.Context, id string, mods []*domain.ShaderModule, frags []domain.Fragment, layout domain.FeedbackLayout) (*domain.Program, error) {
			require.Len(t, frags, 1)
			for _, m := range mods {
				linked = append(linked, m.Stage)
			}
			return linkAll(ctx, id, mods, frags, layout)
		}).Times(1)

	cc := programContext(t)
	cc.AddExtraFragment("lighting", domain.StageFragment, "shade")
	cc.SetFeedbackLayout(domain.FeedbackSeparate)

	prog, err := f.builder.Program(context.Background(), ns, cc, "sprite")
	require.NoError(t, err)

	assert.Equal(t, domain.KindProgram, prog.Kind())
	assert.Equal(t, domain.StageNone, prog.Stage())
	assert.Equal(t, []domain.Stage{domain.StageVertex, domain.StageFragment, domain.StageFragment}, linked)
	require.Len(t, prog.Dependencies(), 3)
	assert.Equal(t, "lighting", prog.Dependencies()[2].Identifier())

	p, ok := prog.Program()
	require.True(t, ok)
	assert.True(t, p.Ready())

	// Objects are keyed without the link-only fields.
	assert.True(t, f.cache.IsCached(ns, domain.KindObject, programContext(t), "sprite", domain.StageVertex))
	assert.Equal(t, 4, f.cache.Entries(ns))

	again, err := f.builder.Program(context.Background(), ns, cc, "sprite")
	require.NoError(t, err)
	assert.Same(t, prog, again)

	require.NoError(t, f.cache.Release(prog))
	require.NoError(t, f.cache.Release(prog))
	assert.Equal(t, 0, f.cache.Entries(ns), "a released program releases its objects")
}

func TestProgramBuilder_ProgramsShareObjects(t *testing.T) {
	f := newProgramFixture(t)
	ns := domain.NewNamespace()

	f.catalog.EXPECT().Stages("sprite").Return([]domain.Stage{domain.StageVertex, domain.StageFragment}).AnyTimes()
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compileEcho).Times(2)
	f.linker.EXPECT().Link(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(linkAll).Times(2)

	interleaved := programContext(t)
	separate := programContext(t)
	separate.SetFeedbackLayout(domain.FeedbackSeparate)

	a, err := f.builder.Program(context.Background(), ns, interleaved, "sprite")
	require.NoError(t, err)
	b, err := f.builder.Program(context.Background(), ns, separate, "sprite")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	for i := range a.Dependencies() {
		assert.Same(t, a.Dependencies()[i], b.Dependencies()[i])
		assert.Equal(t, int64(2), a.Dependencies()[i].Refs())
	}
}

func TestProgramBuilder_LinkFailureReleasesObjects(t *testing.T) {
	f := newProgramFixture(t)
	ns := domain.NewNamespace()

	f.catalog.EXPECT().Stages("sprite").Return([]domain.Stage{domain.StageVertex, domain.StageFragment})
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compileEcho).Times(2)
	f.linker.EXPECT().Link(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, zerr.With(domain.NewError(domain.ErrLinkFailed), "reason", "varying mismatch"))

	_, err := f.builder.Program(context.Background(), ns, programContext(t), "sprite")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLinkFailed)
	assert.Equal(t, 0, f.cache.Entries(ns))
}

func TestProgramBuilder_CompileFailureReleasesEarlierObjects(t *testing.T) {
	f := newProgramFixture(t)
	ns := domain.NewNamespace()

	f.catalog.EXPECT().Stages("sprite").Return([]domain.Stage{domain.StageVertex, domain.StageFragment})
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req ports.CompileRequest) (*domain.ShaderModule, error) {
			if req.Stage == domain.StageFragment {
				return nil, zerr.With(domain.NewError(domain.ErrCompileFailed), "stage", req.Stage.String())
			}
			return compileEcho(ctx, req)
		}).Times(2)

	_, err := f.builder.Program(context.Background(), ns, programContext(t), "sprite")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompileFailed)
	assert.Equal(t, 0, f.cache.Entries(ns))
}

func TestProgramBuilder_NoStages(t *testing.T) {
	f := newProgramFixture(t)

	f.catalog.EXPECT().Stages("ghost").Return(nil)

	_, err := f.builder.Program(context.Background(), domain.NewNamespace(), programContext(t), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoStages)
}

func TestProgramBuilder_ExpandReportsShader(t *testing.T) {
	f := newProgramFixture(t)

	_, err := f.builder.Expand(newContext(t), "sprite", domain.StageVertex)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncludeNotFound)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "sprite", zErr.Metadata()["shader"])
	assert.Equal(t, "vertex", zErr.Metadata()["stage"])
}
