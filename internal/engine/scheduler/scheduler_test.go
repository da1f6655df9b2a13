package scheduler_test

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/shade/internal/core/ports/mocks"
	"go.trai.ch/shade/internal/engine/cache"
	"go.trai.ch/shade/internal/engine/preprocessor"
	"go.trai.ch/shade/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	ctrl      *gomock.Controller
	builder   *cache.ProgramBuilder
	catalog   *mocks.MockSourceCatalog
	compiler  *mocks.MockCompiler
	linker    *mocks.MockLinker
	store     *mocks.MockBuildRecordStore
	telemetry *mocks.MockTelemetry
	logger    *mocks.MockLogger
	sched     *scheduler.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	lib := domain.NewIncludeLibrary()
	lib.Seal()

	f := &fixture{
		ctrl:      ctrl,
		catalog:   mocks.NewMockSourceCatalog(ctrl),
		compiler:  mocks.NewMockCompiler(ctrl),
		linker:    mocks.NewMockLinker(ctrl),
		store:     mocks.NewMockBuildRecordStore(ctrl),
		telemetry: mocks.NewMockTelemetry(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
	}
	f.builder = cache.NewProgramBuilder(
		cache.New(),
		preprocessor.NewResolver(lib, f.logger),
		f.catalog,
		f.compiler,
		f.linker,
	)
	f.sched = scheduler.NewScheduler(f.store, f.telemetry, f.logger)

	f.catalog.EXPECT().Stages(gomock.Any()).Return([]domain.Stage{domain.StageVertex, domain.StageFragment}).AnyTimes()
	f.catalog.EXPECT().Source(gomock.Any(), gomock.Any()).DoAndReturn(
		func(identifier string, stage domain.Stage) ([]string, error) {
			return []string{"// " + identifier + " " + stage.String()}, nil
		}).AnyTimes()
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CompileRequest) (*domain.ShaderModule, error) {
			return domain.NewShaderModule(req.Identifier, req.Stage, []byte(strings.Join(req.Source, "\n")), nil), nil
		}).AnyTimes()
	return f
}

func (f *fixture) linkOK() *gomock.Call {
	return f.linker.EXPECT().Link(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, mods []*domain.ShaderModule, _ []domain.Fragment, l domain.FeedbackLayout) (*domain.Program, error) {
			return domain.NewProgram(id, mods, l), nil
		})
}

// expectVertex records a vertex for name and returns it for further expectations.
func (f *fixture) expectVertex(name string) *mocks.MockVertex {
	vertex := mocks.NewMockVertex(f.ctrl)
	f.telemetry.EXPECT().Record(gomock.Any(), name).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.VertexOption) (context.Context, ports.Vertex) {
			return ctx, vertex
		})
	vertex.EXPECT().Stdout().Return(io.Discard).AnyTimes()
	return vertex
}

func newProject(t *testing.T, names ...string) *domain.Project {
	t.Helper()
	p := &domain.Project{
		Root:     t.TempDir(),
		Programs: make(map[string]domain.ProgramSpec),
	}
	for _, n := range names {
		p.Programs[n] = domain.ProgramSpec{
			Name:    n,
			Shader:  n,
			Context: domain.NewCompilerContext(domain.Version{Number: 450, Profile: "core"}),
		}
	}
	return p
}

func TestScheduler_Run_BuildsAllPrograms(t *testing.T) {
	f := newFixture(t)
	project := newProject(t, "sprite", "tree")
	ns := domain.NewNamespace()

	f.linkOK().Times(2)
	for _, name := range []string{"sprite", "tree"} {
		f.expectVertex(name).EXPECT().Complete(nil)
		f.store.EXPECT().Get(project.Root, name).Return(nil, nil)
	}
	f.store.EXPECT().Put(project.Root, gomock.Any()).DoAndReturn(func(_ string, r domain.BuildRecord) error {
		assert.Contains(t, []string{"sprite", "tree"}, r.Identifier)
		assert.Equal(t, "program", r.Kind)
		assert.Len(t, r.Digest, 64)
		return nil
	}).Times(2)

	outcomes, err := f.sched.Run(context.Background(), f.builder, project, ns, nil, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	for i, name := range []string{"sprite", "tree"} {
		o := outcomes[i]
		assert.Equal(t, name, o.Program)
		assert.Equal(t, scheduler.StatusCompleted, o.Status)
		assert.True(t, o.Changed)
		require.NotNil(t, o.Artifact)
		assert.Equal(t, domain.KindProgram, o.Artifact.Kind())
	}

	assert.Equal(t, map[string]scheduler.ProgramStatus{
		"sprite": scheduler.StatusCompleted,
		"tree":   scheduler.StatusCompleted,
	}, f.sched.GetProgramStatusMap())
}

func TestScheduler_Run_SecondRunIsCached(t *testing.T) {
	f := newFixture(t)
	project := newProject(t, "sprite")
	ns := domain.NewNamespace()

	f.linkOK().Times(1)

	var stored domain.BuildRecord
	first := f.expectVertex("sprite")
	first.EXPECT().Complete(nil)
	f.store.EXPECT().Get(project.Root, "sprite").Return(nil, nil)
	f.store.EXPECT().Put(project.Root, gomock.Any()).DoAndReturn(func(_ string, r domain.BuildRecord) error {
		stored = r
		return nil
	})

	_, err := f.sched.Run(context.Background(), f.builder, project, ns, []string{"sprite"}, 1)
	require.NoError(t, err)

	second := f.expectVertex("sprite")
	gomock.InOrder(
		second.EXPECT().Cached(),
		second.EXPECT().Complete(nil),
	)
	f.store.EXPECT().Get(project.Root, "sprite").DoAndReturn(func(string, string) (*domain.BuildRecord, error) {
		return &stored, nil
	})

	outcomes, err := f.sched.Run(context.Background(), f.builder, project, ns, []string{"all"}, 1)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, scheduler.StatusCached, outcomes[0].Status)
	assert.False(t, outcomes[0].Changed)
	assert.Equal(t, int64(2), outcomes[0].Artifact.Refs())
}

func TestScheduler_Run_FailureIsReportedPerProgram(t *testing.T) {
	f := newFixture(t)
	project := newProject(t, "sprite", "tree")
	ns := domain.NewNamespace()

	f.linker.EXPECT().Link(gomock.Any(), "tree", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, zerr.With(domain.NewError(domain.ErrLinkFailed), "reason", "varying mismatch"))
	f.linker.EXPECT().Link(gomock.Any(), "sprite", gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, mods []*domain.ShaderModule, _ []domain.Fragment, l domain.FeedbackLayout) (*domain.Program, error) {
			return domain.NewProgram(id, mods, l), nil
		})

	f.expectVertex("sprite").EXPECT().Complete(nil)
	f.expectVertex("tree").EXPECT().Complete(gomock.Not(gomock.Nil()))
	f.store.EXPECT().Get(project.Root, "sprite").Return(nil, nil)
	f.store.EXPECT().Put(project.Root, gomock.Any()).Return(nil)

	outcomes, err := f.sched.Run(context.Background(), f.builder, project, ns, nil, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildFailed)

	assert.Equal(t, scheduler.StatusCompleted, outcomes[0].Status)
	assert.Equal(t, scheduler.StatusFailed, outcomes[1].Status)
	assert.Nil(t, outcomes[1].Artifact)

	var zErr *zerr.Error
	require.ErrorAs(t, outcomes[1].Err, &zErr)
	assert.Equal(t, "tree", zErr.Metadata()["program"])
}

func TestScheduler_Run_RecordFailureIsOnlyAWarning(t *testing.T) {
	f := newFixture(t)
	project := newProject(t, "sprite")

	f.linkOK()
	f.expectVertex("sprite").EXPECT().Complete(nil)
	f.store.EXPECT().Get(project.Root, "sprite").Return(nil, nil)
	f.store.EXPECT().Put(project.Root, gomock.Any()).Return(zerr.New("disk full"))
	f.logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, "disk full")
	})

	outcomes, err := f.sched.Run(context.Background(), f.builder, project, domain.NewNamespace(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusCompleted, outcomes[0].Status)
}

func TestScheduler_Run_UnknownProgram(t *testing.T) {
	f := newFixture(t)
	project := newProject(t, "sprite")

	_, err := f.sched.Run(context.Background(), f.builder, project, domain.NewNamespace(), []string{"ghost"}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)
}

func TestScheduler_Run_HonoursParallelism(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		project := newProject(t, "a", "b", "c")

		gate := make(chan struct{})
		var linking atomic.Int32
		f.linker.EXPECT().Link(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, mods []*domain.ShaderModule, _ []domain.Fragment, l domain.FeedbackLayout) (*domain.Program, error) {
				linking.Add(1)
				<-gate
				linking.Add(-1)
				return domain.NewProgram(id, mods, l), nil
			}).Times(3)
		for _, name := range []string{"a", "b", "c"} {
			f.expectVertex(name).EXPECT().Complete(nil)
			f.store.EXPECT().Get(project.Root, name).Return(nil, nil)
			f.store.EXPECT().Put(project.Root, gomock.Any()).Return(nil)
		}

		done := make(chan error)
		go func() {
			_, err := f.sched.Run(context.Background(), f.builder, project, domain.NewNamespace(), nil, 2)
			done <- err
		}()

		synctest.Wait()
		assert.Equal(t, int32(2), linking.Load(), "only two programs may build at once")
		close(gate)

		require.NoError(t, <-done)
		assert.Equal(t, int32(0), linking.Load())
	})
}
