// Package cache implements the namespace-scoped, reference-counted artifact cache.
package cache

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Result is the outcome of a build function.
type Result struct {
	Handle domain.Handle
	// Deps are artifacts the handle holds references on. They are released with the artifact.
	Deps []*Artifact
}

// BuildFunc compiles or links an artifact. It receives the cache's frozen copy of the
// requested context. On error the function must release any dependencies it acquired.
type BuildFunc func(ctx context.Context, cc *domain.CompilerContext) (Result, error)

// Stats holds cumulative cache counters.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Builds   uint64
	Failures uint64
	Discards uint64
	Releases uint64
}

// Cache holds at most one artifact per namespace, kind, identifier, stage and context.
//
// All state of a namespace is guarded by that namespace's lock. Build functions run
// with no lock held, and concurrent requests for the same key share a single build.
type Cache struct {
	mu         sync.Mutex
	namespaces map[domain.Namespace]*namespaceState
	observer   ports.CacheObserver
	keyOf      func(domain.ArtifactKind, string, domain.Stage, *domain.CompilerContext) domain.ArtifactKey

	hits     atomic.Uint64
	misses   atomic.Uint64
	builds   atomic.Uint64
	failures atomic.Uint64
	discards atomic.Uint64
	releases atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver reports cache events to o.
func WithObserver(o ports.CacheObserver) Option {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		namespaces: make(map[domain.Namespace]*namespaceState),
		observer:   nopObserver{},
		keyOf:      domain.NewArtifactKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type namespaceState struct {
	mu       sync.Mutex
	entries  map[domain.ArtifactKey][]*Artifact
	released bool
	flight   singleflight.Group
}

// find returns the artifact stored under key whose context equals cc.
// Entries in one bucket share a key but not a context.
func (st *namespaceState) find(key domain.ArtifactKey, cc *domain.CompilerContext) *Artifact {
	for _, a := range st.entries[key] {
		if a.context.Equal(cc) {
			return a
		}
	}
	return nil
}

func (st *namespaceState) insert(a *Artifact) {
	st.entries[a.key] = append(st.entries[a.key], a)
}

func (st *namespaceState) remove(a *Artifact) {
	bucket := slices.DeleteFunc(st.entries[a.key], func(b *Artifact) bool { return b == a })
	if len(bucket) == 0 {
		delete(st.entries, a.key)
		return
	}
	st.entries[a.key] = bucket
}

func (c *Cache) namespace(ns domain.Namespace) *namespaceState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.namespaces[ns]
	if !ok {
		st = &namespaceState{entries: make(map[domain.ArtifactKey][]*Artifact)}
		c.namespaces[ns] = st
	}
	return st
}

func (c *Cache) lookupNamespace(ns domain.Namespace) *namespaceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namespaces[ns]
}

// IsCached reports whether an artifact for the request is cached, without side effects.
func (c *Cache) IsCached(
	ns domain.Namespace,
	kind domain.ArtifactKind,
	cc *domain.CompilerContext,
	identifier string,
	stage domain.Stage,
) bool {
	st := c.lookupNamespace(ns)
	if st == nil {
		return false
	}

	key := c.keyOf(kind, identifier, stage, cc)

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.find(key, cc) != nil
}

// GetOrCreate returns the cached artifact for the request, incrementing its reference
// count, or builds, caches and returns it with a reference count of one.
//
// A failed or cancelled build caches nothing. A build that finishes after its namespace
// was released is destroyed and reported as domain.ErrNamespaceReleased.
func (c *Cache) GetOrCreate(
	ctx context.Context,
	ns domain.Namespace,
	kind domain.ArtifactKind,
	cc *domain.CompilerContext,
	identifier string,
	stage domain.Stage,
	build BuildFunc,
) (*Artifact, error) {
	frozen := cc.Clone()
	key := c.keyOf(kind, identifier, stage, frozen)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st := c.namespace(ns)

		st.mu.Lock()
		if st.released {
			st.mu.Unlock()
			return nil, releasedError(ns)
		}
		if a := st.find(key, frozen); a != nil {
			a.refs.Add(1)
			st.mu.Unlock()
			c.hit(kind)
			return a, nil
		}
		st.mu.Unlock()

		var leader, built bool
		ch := st.flight.DoChan(key.String(), func() (any, error) {
			leader = true
			return c.build(ctx, st, ns, key, frozen, build, &built)
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			go c.abandon(ch, &leader)
			return nil, ctx.Err()
		}

		if res.Err != nil {
			// The shared build ran under another caller's context; retry under ours.
			if !leader && isCancellation(res.Err) && ctx.Err() == nil {
				continue
			}
			return nil, res.Err
		}

		a := res.Val.(*Artifact)
		if leader {
			// The flight already counted the leader's reference.
			if !built {
				c.hit(kind)
			}
			return a, nil
		}
		if !a.context.Equal(frozen) {
			// Joined the build of a different context whose key collided with ours.
			continue
		}

		st.mu.Lock()
		if a.released() {
			released := st.released
			st.mu.Unlock()
			if released {
				return nil, releasedError(ns)
			}
			continue
		}
		a.refs.Add(1)
		st.mu.Unlock()

		c.hit(kind)
		return a, nil
	}
}

// abandon waits for a flight whose caller stopped waiting and drops the reference
// the flight took on that caller's behalf.
func (c *Cache) abandon(ch <-chan singleflight.Result, leader *bool) {
	res := <-ch
	if res.Err != nil || !*leader {
		return
	}
	_ = c.Release(res.Val.(*Artifact))
}

// build runs inside the single flight for key. The returned artifact carries the
// leader's reference; followers sharing the flight add their own.
func (c *Cache) build(
	ctx context.Context,
	st *namespaceState,
	ns domain.Namespace,
	key domain.ArtifactKey,
	frozen *domain.CompilerContext,
	build BuildFunc,
	built *bool,
) (*Artifact, error) {
	st.mu.Lock()
	if st.released {
		st.mu.Unlock()
		return nil, releasedError(ns)
	}
	// An earlier flight may have inserted the artifact after our caller's lookup.
	if a := st.find(key, frozen); a != nil {
		a.refs.Add(1)
		st.mu.Unlock()
		return a, nil
	}
	st.mu.Unlock()

	*built = true
	c.misses.Add(1)
	c.observer.Miss(key.Kind)

	start := time.Now()
	res, err := build(ctx, frozen)
	if err == nil && res.Handle == nil {
		err = zerr.With(domain.NewError(domain.ErrNoHandle), "key", key.String())
	}
	c.builds.Add(1)
	c.observer.Built(key.Kind, time.Since(start), err)
	if err != nil {
		c.failures.Add(1)
		return nil, err
	}

	a := newArtifact(key, frozen, res.Handle, res.Deps)

	if err := ctx.Err(); err != nil {
		c.failures.Add(1)
		c.discard(a, domain.DiscardCancelled)
		return nil, err
	}

	st.mu.Lock()
	if st.released {
		st.mu.Unlock()
		c.discard(a, domain.DiscardReleased)
		return nil, releasedError(ns)
	}
	if existing := st.find(key, frozen); existing != nil {
		existing.refs.Add(1)
		st.mu.Unlock()
		c.discard(a, domain.DiscardDuplicate)
		return existing, nil
	}
	a.ns = ns
	a.owner = st
	a.setState(domain.ArtifactReady)
	st.insert(a)
	st.mu.Unlock()

	return a, nil
}

// Adopt registers an artifact built outside the cache under ns.
func (c *Cache) Adopt(ns domain.Namespace, a *Artifact) error {
	if a.handle == nil || !a.handle.Ready() {
		return zerr.With(domain.NewError(domain.ErrNotReady), "key", a.key.String())
	}

	st := c.namespace(ns)

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.released {
		return releasedError(ns)
	}
	if a.owner != nil || a.released() || st.find(a.key, a.context) != nil {
		return zerr.With(domain.NewError(domain.ErrAlreadyCached), "key", a.key.String())
	}

	a.ns = ns
	a.owner = st
	a.setState(domain.ArtifactReady)
	st.insert(a)
	return nil
}

// Release drops one reference to a. The artifact is destroyed when no references remain.
// Releasing an artifact that is already released is a no-op.
func (c *Cache) Release(a *Artifact) error {
	st := a.owner
	if st == nil {
		if a.released() || a.refs.Add(-1) > 0 {
			return nil
		}
		return c.destroy(a, true)
	}

	st.mu.Lock()
	if a.released() {
		st.mu.Unlock()
		return nil
	}
	if a.refs.Add(-1) > 0 {
		st.mu.Unlock()
		return nil
	}
	st.remove(a)
	a.setState(domain.ArtifactReleased)
	st.mu.Unlock()

	return c.destroy(a, true)
}

// ReleaseNamespace drops every artifact of ns regardless of outstanding references and
// destroys each exactly once. Releasing an unknown or already released namespace is a no-op.
func (c *Cache) ReleaseNamespace(ns domain.Namespace) error {
	c.mu.Lock()
	st, ok := c.namespaces[ns]
	delete(c.namespaces, ns)
	c.mu.Unlock()

	if !ok {
		return nil
	}

	st.mu.Lock()
	st.released = true
	var all []*Artifact
	for _, bucket := range st.entries {
		for _, a := range bucket {
			a.setState(domain.ArtifactReleased)
			a.refs.Store(0)
			all = append(all, a)
		}
	}
	st.entries = make(map[domain.ArtifactKey][]*Artifact)
	st.mu.Unlock()

	// Programs go first so that no program outlives the objects it links.
	slices.SortStableFunc(all, func(a, b *Artifact) int {
		return cmp.Compare(b.key.Kind, a.key.Kind)
	})

	var errs []error
	for _, a := range all {
		// Dependencies live in the same namespace and are destroyed by this loop.
		if err := c.destroy(a, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Entries returns the number of artifacts cached under ns.
func (c *Cache) Entries(ns domain.Namespace) int {
	st := c.lookupNamespace(ns)
	if st == nil {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for _, bucket := range st.entries {
		n += len(bucket)
	}
	return n
}

// Namespaces returns the namespaces that currently hold state.
func (c *Cache) Namespaces() []domain.Namespace {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Namespace, 0, len(c.namespaces))
	for ns := range c.namespaces {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Builds:   c.builds.Load(),
		Failures: c.failures.Load(),
		Discards: c.discards.Load(),
		Releases: c.releases.Load(),
	}
}

func (c *Cache) hit(kind domain.ArtifactKind) {
	c.hits.Add(1)
	c.observer.Hit(kind)
}

// discard destroys a finished build that will not be cached.
func (c *Cache) discard(a *Artifact, reason domain.DiscardReason) {
	c.discards.Add(1)
	c.observer.Discarded(a.key.Kind, reason)
	_ = c.destroy(a, true)
}

func (c *Cache) destroy(a *Artifact, releaseDeps bool) error {
	a.teardown.Do(func() {
		a.setState(domain.ArtifactReleased)

		var errs []error
		if err := a.handle.Destroy(); err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(err, "failed to destroy artifact"), "key", a.key.String()))
		}
		if releaseDeps {
			for _, dep := range a.deps {
				if err := c.Release(dep); err != nil {
					errs = append(errs, err)
				}
			}
		}
		a.err = errors.Join(errs...)

		c.releases.Add(1)
		c.observer.Released(a.key.Kind, 1)
	})
	return a.err
}

func releasedError(ns domain.Namespace) error {
	return zerr.With(domain.NewError(domain.ErrNamespaceReleased), "namespace", ns.String())
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type nopObserver struct{}

func (nopObserver) Hit(domain.ArtifactKind)                             {}
func (nopObserver) Miss(domain.ArtifactKind)                            {}
func (nopObserver) Built(domain.ArtifactKind, time.Duration, error)     {}
func (nopObserver) Discarded(domain.ArtifactKind, domain.DiscardReason) {}
func (nopObserver) Released(domain.ArtifactKind, int)                   {}
