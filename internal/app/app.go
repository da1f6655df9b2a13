// Package app implements the application layer for shade.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/shade/internal/adapters/fs"
	"go.trai.ch/shade/internal/adapters/naga"
	"go.trai.ch/shade/internal/adapters/shell"
	"go.trai.ch/shade/internal/adapters/telemetry/progrock"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/shade/internal/engine/cache"
	"go.trai.ch/shade/internal/engine/preprocessor"
	"go.trai.ch/shade/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Metrics observes the artifact cache and exports what it saw.
type Metrics interface {
	ports.CacheObserver
	WriteTextfile(path string) error
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	includes     ports.IncludeLoader
	hasher       ports.Hasher
	executor     ports.Executor
	compiler     ports.Compiler
	linker       ports.Linker
	scheduler    *scheduler.Scheduler
	cache        *cache.Cache
	store        ports.BuildRecordStore
	watcher      ports.Watcher
	metrics      Metrics
	logger       ports.Logger
}

// New creates a new App instance.
//
// compiler serves projects using the naga driver; projects using the command
// driver get a compiler running their command through executor. Every session
// builds into its own namespace of c; a nil c gets a private cache reporting to metrics.
func New(
	loader ports.ConfigLoader,
	includes ports.IncludeLoader,
	hasher ports.Hasher,
	executor ports.Executor,
	compiler ports.Compiler,
	linker ports.Linker,
	sched *scheduler.Scheduler,
	c *cache.Cache,
	store ports.BuildRecordStore,
	watcher ports.Watcher,
	metrics Metrics,
	log ports.Logger,
) *App {
	if c == nil {
		var opts []cache.Option
		if metrics != nil {
			opts = append(opts, cache.WithObserver(metrics))
		}
		c = cache.New(opts...)
	}
	return &App{
		configLoader: loader,
		includes:     includes,
		hasher:       hasher,
		executor:     executor,
		compiler:     compiler,
		linker:       linker,
		scheduler:    sched,
		cache:        c,
		store:        store,
		watcher:      watcher,
		metrics:      metrics,
		logger:       log,
	}
}

// BuildOptions configures Build and Watch.
type BuildOptions struct {
	// ConfigPath is the shade.yaml file or the directory to discover it from.
	ConfigPath string
	// Parallelism bounds the programs built at once; zero uses every CPU.
	Parallelism int
	// Quiet suppresses per-program progress output.
	Quiet bool
	// MetricsPath, when set, receives the cache metrics after each build.
	MetricsPath string
}

// ExpandOptions configures Expand.
type ExpandOptions struct {
	ConfigPath string
	// Program selects the context to expand under. It defaults to the program
	// named like the shader, then to the project's base context.
	Program string
	// Preamble prepends the directives the compiler would see.
	Preamble bool
}

// session holds the artifacts built for one revision of a project.
type session struct {
	project  *domain.Project
	resolver *preprocessor.Resolver
	builder  *cache.ProgramBuilder
	ns       domain.Namespace
}

func (a *App) open(project *domain.Project) (*session, error) {
	lib, err := a.includes.Load(project.IncludeRoot)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load include library")
	}

	compiler := a.compiler
	if project.Compiler.Driver == domain.DriverCommand {
		compiler = shell.NewCompiler(a.executor, project.Compiler.Command)
	}

	resolver := preprocessor.NewResolver(lib, a.logger, preprocessor.WithMemo(preprocessor.DefaultMemoSize))

	return &session{
		project:  project,
		resolver: resolver,
		builder: cache.NewProgramBuilder(
			a.cache,
			resolver,
			fs.NewCatalog(project),
			compiler,
			a.linker,
		),
		ns: domain.NewNamespace(),
	}, nil
}

// close releases every artifact built in the session.
func (a *App) close(s *session) {
	if s == nil {
		return
	}
	if err := a.cache.ReleaseNamespace(s.ns); err != nil {
		a.logger.Warn(fmt.Sprintf("failed to release artifacts: %v", err))
	}
}

// Build compiles and links the named programs, or every program when names is empty.
func (a *App) Build(ctx context.Context, names []string, opts BuildOptions) error {
	project, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	s, err := a.open(project)
	if err != nil {
		return err
	}
	defer a.close(s)

	return a.build(ctx, s, names, opts)
}

func (a *App) build(ctx context.Context, s *session, names []string, opts BuildOptions) error {
	sched := a.scheduler
	if opts.Quiet {
		sched = sched.WithTelemetry(progrock.New())
	}

	outcomes, runErr := sched.Run(ctx, s.builder, s.project, s.ns, names, opts.Parallelism)
	if len(outcomes) > 0 {
		a.logger.Info(summarize(outcomes))
	}

	if opts.MetricsPath != "" && a.metrics != nil {
		if err := a.metrics.WriteTextfile(opts.MetricsPath); err != nil {
			a.logger.Warn(err.Error())
		}
	}
	return runErr
}

func summarize(outcomes []scheduler.Outcome) string {
	var built, cached, failed, changed int
	for _, o := range outcomes {
		switch o.Status {
		case scheduler.StatusCached:
			cached++
		case scheduler.StatusFailed:
			failed++
		default:
			built++
		}
		if o.Changed {
			changed++
		}
	}

	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "%d programs: %d built, %d cached", len(outcomes), built, cached)
	if failed > 0 {
		_, _ = fmt.Fprintf(&b, ", %d failed", failed)
	}
	_, _ = fmt.Fprintf(&b, " (%d changed)", changed)
	return b.String()
}

// Expand returns the source of a shader stage with every include resolved.
func (a *App) Expand(_ context.Context, shader, stage string, opts ExpandOptions) ([]string, error) {
	st, err := domain.ParseStage(stage)
	if err != nil {
		return nil, err
	}

	project, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	cc, err := expandContext(project, shader, opts.Program)
	if err != nil {
		return nil, err
	}

	s, err := a.open(project)
	if err != nil {
		return nil, err
	}
	defer a.close(s)

	lines, err := s.builder.Expand(cc, shader, st)
	if err != nil {
		return nil, err
	}
	if !opts.Preamble {
		return lines, nil
	}

	preamble := cc.Preamble()
	if project.Compiler.Driver != domain.DriverCommand {
		preamble = naga.Preamble(cc)
	}
	return append(preamble, lines...), nil
}

func expandContext(project *domain.Project, shader, program string) (*domain.CompilerContext, error) {
	if program != "" {
		spec, ok := project.Programs[program]
		if !ok {
			return nil, zerr.With(domain.NewError(domain.ErrProgramNotFound), "program", program)
		}
		return spec.Context, nil
	}
	if spec, ok := project.Programs[shader]; ok {
		return spec.Context, nil
	}
	if project.Base != nil {
		return project.Base, nil
	}
	return domain.NewCompilerContext(domain.Version{}), nil
}

// Status returns the recorded builds of the project.
func (a *App) Status(configPath string) ([]domain.BuildRecord, error) {
	project, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return a.store.List(project.Root)
}
