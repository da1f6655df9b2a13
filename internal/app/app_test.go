package app_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shade/internal/adapters/metrics"
	"go.trai.ch/shade/internal/adapters/pipeline"
	"go.trai.ch/shade/internal/app"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/shade/internal/core/ports/mocks"
	"go.trai.ch/shade/internal/engine/cache"
	"go.trai.ch/shade/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	app      *app.App
	project  *domain.Project
	loader   *mocks.MockConfigLoader
	includes *mocks.MockIncludeLoader
	hasher   *mocks.MockHasher
	executor *mocks.MockExecutor
	compiler *mocks.MockCompiler
	store    *mocks.MockBuildRecordStore
	watcher  *mocks.MockWatcher
	logger   *mocks.MockLogger
	metrics  *metrics.Observer
	cache    *cache.Cache
	compiled atomic.Int32
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newProject(t *testing.T) *domain.Project {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "shaders/sprite.vert.wgsl", "#include </lib/common.wgsl>\n@vertex fn vs_main() {}\n")
	writeFile(t, root, "shaders/sprite.frag.wgsl", "#include </lib/common.wgsl>\n@fragment fn fs_main() {}\n")

	base := domain.NewCompilerContext(domain.Version{})
	return &domain.Project{
		Root:        root,
		IncludeRoot: filepath.Join(root, "include"),
		Compiler:    domain.CompilerSettings{Driver: domain.DriverNaga},
		Base:        base,
		Shaders: map[string]map[domain.Stage]string{
			"sprite": {
				domain.StageVertex:   "shaders/sprite.vert.wgsl",
				domain.StageFragment: "shaders/sprite.frag.wgsl",
			},
		},
		Programs: map[string]domain.ProgramSpec{
			"sprite": {Name: "sprite", Shader: "sprite", Context: base.Clone()},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		project:  newProject(t),
		loader:   mocks.NewMockConfigLoader(ctrl),
		includes: mocks.NewMockIncludeLoader(ctrl),
		hasher:   mocks.NewMockHasher(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		compiler: mocks.NewMockCompiler(ctrl),
		store:    mocks.NewMockBuildRecordStore(ctrl),
		watcher:  mocks.NewMockWatcher(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		metrics:  metrics.NewObserver(),
	}
	f.cache = cache.New(cache.WithObserver(f.metrics))

	telemetry := mocks.NewMockTelemetry(ctrl)
	vertex := mocks.NewMockVertex(ctrl)
	telemetry.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.VertexOption) (context.Context, ports.Vertex) {
			return ctx, vertex
		}).AnyTimes()
	vertex.EXPECT().Stdout().Return(io.Discard).AnyTimes()
	vertex.EXPECT().Cached().AnyTimes()
	vertex.EXPECT().Complete(gomock.Any()).AnyTimes()

	f.includes.EXPECT().Load(f.project.IncludeRoot).DoAndReturn(func(string) (*domain.IncludeLibrary, error) {
		lib := domain.NewIncludeLibrary()
		if err := lib.Register("/lib/common.wgsl", []string{"// common"}); err != nil {
			return nil, err
		}
		lib.Seal()
		return lib, nil
	}).AnyTimes()
	f.store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.app = app.New(
		f.loader,
		f.includes,
		f.hasher,
		f.executor,
		f.compiler,
		pipeline.NewLinker(),
		scheduler.NewScheduler(f.store, telemetry, f.logger),
		f.cache,
		f.store,
		f.watcher,
		f.metrics,
		f.logger,
	)
	return f
}

func (f *fixture) compileOK() *gomock.Call {
	return f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CompileRequest) (*domain.ShaderModule, error) {
			f.compiled.Add(1)
			code := []byte(strings.Join(req.Source, "\n"))
			return domain.NewShaderModule(req.Identifier, req.Stage, code, []domain.EntryPoint{
				{Name: "main", Stage: req.Stage},
			}), nil
		})
}

func TestApp_Build(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("shade.yaml").Return(f.project, nil)
	f.compileOK().Times(2).Do(func(_ context.Context, req ports.CompileRequest) {
		assert.Equal(t, "// common", req.Source[0])
	})
	f.logger.EXPECT().Info("1 programs: 1 built, 0 cached (1 changed)")

	metricsPath := filepath.Join(t.TempDir(), "shade.prom")
	err := f.app.Build(context.Background(), nil, app.BuildOptions{
		ConfigPath:  "shade.yaml",
		Parallelism: 2,
		MetricsPath: metricsPath,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `shade_builds_total{kind="object",status="success"} 2`)
}

func TestApp_Build_SessionsShareOneCache(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("").Return(f.project, nil).Times(2)
	f.compileOK().Times(4)
	f.logger.EXPECT().Info(gomock.Any()).Times(2)

	for range 2 {
		require.NoError(t, f.app.Build(context.Background(), nil, app.BuildOptions{}))
	}

	stats := f.cache.Stats()
	assert.NotZero(t, stats.Builds)
	assert.Equal(t, stats.Builds, stats.Releases, "each session releases its namespace")
	assert.Empty(t, f.cache.Namespaces())
}

func TestApp_SharedIncludesUseTheMemo(t *testing.T) {
	f := newFixture(t)

	hits, err := f.app.ExpandStages(f.project, "sprite", domain.StageVertex, domain.StageFragment)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), hits, "the fragment stage reuses the expansion of /lib/common.wgsl")
}

func TestApp_Build_Quiet(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("").Return(f.project, nil)
	f.compileOK().Times(2)
	f.logger.EXPECT().Info(gomock.Any())

	require.NoError(t, f.app.Build(context.Background(), []string{"sprite"}, app.BuildOptions{Quiet: true}))
}

func TestApp_Build_CommandDriver(t *testing.T) {
	f := newFixture(t)
	f.project.Compiler = domain.CompilerSettings{
		Driver:  domain.DriverCommand,
		Command: []string{"glslc", "{input}", "-o", "{output}"},
	}

	f.loader.EXPECT().Load("").Return(f.project, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, inv ports.Invocation) error {
			require.Len(t, inv.Args, 4)
			assert.Equal(t, "glslc", inv.Args[0])
			return os.WriteFile(inv.Args[3], []byte{0x03, 0x02, 0x23, 0x07}, 0o600)
		}).Times(2)
	f.logger.EXPECT().Info(gomock.Any())

	require.NoError(t, f.app.Build(context.Background(), nil, app.BuildOptions{}))
}

func TestApp_Build_Failure(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("").Return(f.project, nil)
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).
		Return(nil, zerr.With(domain.NewError(domain.ErrCompileFailed), "output", "syntax error")).MinTimes(1)
	f.logger.EXPECT().Info("1 programs: 0 built, 0 cached, 1 failed (0 changed)")

	err := f.app.Build(context.Background(), nil, app.BuildOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildFailed)
	assert.ErrorIs(t, err, domain.ErrCompileFailed)
}

func TestApp_Build_ConfigError(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("").Return(nil, domain.ErrConfigNotFound)

	err := f.app.Build(context.Background(), nil, app.BuildOptions{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load configuration")
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestApp_Expand(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("").Return(f.project, nil).Times(2)

	lines, err := f.app.Expand(context.Background(), "sprite", "vert", app.ExpandOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"// common", "@vertex fn vs_main() {}"}, lines)

	require.NoError(t, f.project.Programs["sprite"].Context.Define("USE_FOG", false))
	lines, err = f.app.Expand(context.Background(), "sprite", "fragment", app.ExpandOptions{Preamble: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"const USE_FOG = true;", "// common", "@fragment fn fs_main() {}"}, lines)
}

func TestApp_Expand_Errors(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("").Return(f.project, nil).AnyTimes()

	_, err := f.app.Expand(context.Background(), "sprite", "surface", app.ExpandOptions{})
	assert.ErrorIs(t, err, domain.ErrUnknownStage)

	_, err = f.app.Expand(context.Background(), "sprite", "vertex", app.ExpandOptions{Program: "ghost"})
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)

	_, err = f.app.Expand(context.Background(), "tree", "vertex", app.ExpandOptions{})
	assert.ErrorIs(t, err, domain.ErrShaderNotFound)
}

func TestApp_Status(t *testing.T) {
	f := newFixture(t)

	records := []domain.BuildRecord{{Identifier: "sprite", Kind: "program", Digest: "abc"}}
	f.loader.EXPECT().Load("").Return(f.project, nil)
	f.store.EXPECT().List(f.project.Root).Return(records, nil)

	got, err := f.app.Status("")
	require.NoError(t, err)
	assert.Equal(t, records, got)
}
