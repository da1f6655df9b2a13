package cache

import "go.trai.ch/shade/internal/core/domain"

// NewWithConstantKey returns a cache that files every request of a kind, identifier and
// stage under one context hash, so that distinct contexts share a bucket.
// This is exported for testing purposes only.
func NewWithConstantKey(opts ...Option) *Cache {
	c := New(opts...)
	c.keyOf = func(kind domain.ArtifactKind, identifier string, stage domain.Stage, _ *domain.CompilerContext) domain.ArtifactKey {
		return domain.ArtifactKey{Kind: kind, Identifier: domain.NewInternedString(identifier), Stage: stage}
	}
	return c
}
