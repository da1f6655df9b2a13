package cache

import (
	"sync"
	"sync/atomic"

	"go.trai.ch/shade/internal/core/domain"
)

// Artifact is a reference-counted compiled object or linked program.
//
// The reference count starts at one and grows by one on every cache hit. The handle
// is destroyed once, when the count reaches zero or when the owning namespace is released.
type Artifact struct {
	key     domain.ArtifactKey
	context *domain.CompilerContext
	handle  domain.Handle
	deps    []*Artifact

	// Mutated only while the owning namespace lock is held.
	refs  atomic.Int64
	state atomic.Value
	owner *namespaceState
	ns    domain.Namespace

	teardown sync.Once
	err      error
}

// NewArtifact wraps a handle built outside the cache so it can be registered with Cache.Adopt.
func NewArtifact(
	kind domain.ArtifactKind,
	cc *domain.CompilerContext,
	identifier string,
	stage domain.Stage,
	handle domain.Handle,
) *Artifact {
	frozen := cc.Clone()
	return newArtifact(domain.NewArtifactKey(kind, identifier, stage, frozen), frozen, handle, nil)
}

func newArtifact(key domain.ArtifactKey, frozen *domain.CompilerContext, handle domain.Handle, deps []*Artifact) *Artifact {
	a := &Artifact{
		key:     key,
		context: frozen,
		handle:  handle,
		deps:    deps,
	}
	a.refs.Store(1)
	a.state.Store(domain.ArtifactBuilding)
	return a
}

// Key returns the cache key of the artifact.
func (a *Artifact) Key() domain.ArtifactKey {
	return a.key
}

// Kind returns whether the artifact is an object or a program.
func (a *Artifact) Kind() domain.ArtifactKind {
	return a.key.Kind
}

// Identifier returns the shader identifier the artifact was built for.
func (a *Artifact) Identifier() string {
	return a.key.Identifier.String()
}

// Stage returns the stage of an object artifact, or domain.StageNone for programs.
func (a *Artifact) Stage() domain.Stage {
	return a.key.Stage
}

// Namespace returns the namespace the artifact is cached in. It is empty until the artifact is cached.
func (a *Artifact) Namespace() domain.Namespace {
	return a.ns
}

// Context returns a copy of the context the artifact was built under.
func (a *Artifact) Context() *domain.CompilerContext {
	return a.context.Clone()
}

// Handle returns the compiled handle.
func (a *Artifact) Handle() domain.Handle {
	return a.handle
}

// Module returns the compiled shader module of an object artifact.
func (a *Artifact) Module() (*domain.ShaderModule, bool) {
	m, ok := a.handle.(*domain.ShaderModule)
	return m, ok
}

// Program returns the linked program of a program artifact.
func (a *Artifact) Program() (*domain.Program, bool) {
	p, ok := a.handle.(*domain.Program)
	return p, ok
}

// Dependencies returns the artifacts this artifact holds references on.
func (a *Artifact) Dependencies() []*Artifact {
	return a.deps
}

// Refs returns the current reference count.
func (a *Artifact) Refs() int64 {
	return a.refs.Load()
}

// State returns the lifecycle state of the artifact.
func (a *Artifact) State() domain.ArtifactState {
	return a.state.Load().(domain.ArtifactState)
}

func (a *Artifact) setState(s domain.ArtifactState) {
	a.state.Store(s)
}

func (a *Artifact) released() bool {
	return a.State() == domain.ArtifactReleased
}
