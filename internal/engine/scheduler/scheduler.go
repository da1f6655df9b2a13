// Package scheduler builds the configured programs of a project concurrently.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/shade/internal/engine/cache"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ProgramStatus represents the status of a program build.
type ProgramStatus string

const (
	// StatusPending indicates the program is waiting to be built.
	StatusPending ProgramStatus = "Pending"
	// StatusRunning indicates the program is currently building.
	StatusRunning ProgramStatus = "Running"
	// StatusCompleted indicates the program was built.
	StatusCompleted ProgramStatus = "Completed"
	// StatusCached indicates the program was served from the artifact cache.
	StatusCached ProgramStatus = "Cached"
	// StatusFailed indicates the program build failed.
	StatusFailed ProgramStatus = "Failed"
)

// Outcome is the result of building one program.
type Outcome struct {
	Program string
	Status  ProgramStatus
	// Artifact holds one reference on the program; it is nil when the build failed.
	Artifact *cache.Artifact
	Digest   string
	// Changed reports whether the digest differs from the previously recorded build.
	Changed bool
	Err     error
}

// Scheduler manages the concurrent build of programs through the artifact cache.
type Scheduler struct {
	store     ports.BuildRecordStore
	telemetry ports.Telemetry
	logger    ports.Logger

	mu            sync.RWMutex
	programStatus map[string]ProgramStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	store ports.BuildRecordStore,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		store:         store,
		telemetry:     telemetry,
		logger:        logger,
		programStatus: make(map[string]ProgramStatus),
	}
}

// WithTelemetry returns a scheduler sharing the store and logger that records to telemetry.
func (s *Scheduler) WithTelemetry(telemetry ports.Telemetry) *Scheduler {
	return NewScheduler(s.store, telemetry, s.logger)
}

func (s *Scheduler) initStatuses(programs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.programStatus)
	for _, p := range programs {
		s.programStatus[p] = StatusPending
	}
}

func (s *Scheduler) updateStatus(program string, status ProgramStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programStatus[program] = status
}

// Run builds the named programs of project through builder under ns with the specified parallelism.
// If names is empty or contains "all", every configured program is built.
//
// Outcomes are returned in the order the programs were resolved. The returned error
// joins the failure of every program that did not build.
func (s *Scheduler) Run(
	ctx context.Context,
	builder *cache.ProgramBuilder,
	project *domain.Project,
	ns domain.Namespace,
	names []string,
	parallelism int,
) ([]Outcome, error) {
	programs, err := resolvePrograms(project, names)
	if err != nil {
		return nil, err
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	s.initStatuses(programs)

	outcomes := make([]Outcome, len(programs))

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, name := range programs {
		g.Go(func() error {
			outcomes[i] = s.buildProgram(ctx, builder, project.Root, ns, project.Programs[name])
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}

func (s *Scheduler) buildProgram(
	ctx context.Context,
	builder *cache.ProgramBuilder,
	root string,
	ns domain.Namespace,
	spec domain.ProgramSpec,
) Outcome {
	name := spec.Name
	s.updateStatus(name, StatusRunning)

	ctx, vertex := s.telemetry.Record(ctx, name)

	hit := builder.Cache().IsCached(ns, domain.KindProgram, spec.Context, spec.Shader, domain.StageNone)

	a, err := builder.Program(ctx, ns, spec.Context, spec.Shader)
	if err != nil {
		vertex.Complete(err)
		s.updateStatus(name, StatusFailed)
		return Outcome{
			Program: name,
			Status:  StatusFailed,
			Err:     zerr.With(domain.WrapError(domain.ErrBuildFailed, err), "program", name),
		}
	}

	prog, _ := a.Program()
	digest := prog.Digest()

	changed, err := s.record(root, name, a, prog, digest)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("failed to record build of %s: %v", name, err))
	}

	_, _ = fmt.Fprintf(vertex.Stdout(), "%s [%s] %s\n", name, joinStages(prog.Stages()), shortDigest(digest))

	status := StatusCompleted
	if hit {
		vertex.Cached()
		status = StatusCached
	}
	vertex.Complete(nil)
	s.updateStatus(name, status)

	return Outcome{
		Program:  name,
		Status:   status,
		Artifact: a,
		Digest:   digest,
		Changed:  changed,
	}
}

// record compares the digest with the stored record and persists it when it changed.
func (s *Scheduler) record(root, name string, a *cache.Artifact, prog *domain.Program, digest string) (bool, error) {
	prev, err := s.store.Get(root, name)
	if err != nil {
		return true, err
	}
	if prev != nil && prev.Digest == digest {
		return false, nil
	}

	return true, s.store.Put(root, domain.BuildRecord{
		Key:         a.Key().String(),
		Kind:        a.Kind().String(),
		Identifier:  name,
		Stage:       a.Stage(),
		Digest:      digest,
		BuiltAt:     time.Now(),
		EntryPoints: prog.EntryPoints,
	})
}

func resolvePrograms(project *domain.Project, names []string) ([]string, error) {
	if len(names) == 0 || slices.Contains(names, "all") {
		return project.ProgramNames(), nil
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := project.Programs[name]; !ok {
			return nil, zerr.With(domain.NewError(domain.ErrProgramNotFound), "program", name)
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

func joinStages(stages []domain.Stage) string {
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.String()
	}
	return strings.Join(names, ",")
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
