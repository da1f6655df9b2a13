package domain

import "fmt"

// ArtifactKey locates a cached artifact within a namespace.
// It is comparable and used directly as a map key.
type ArtifactKey struct {
	Kind        ArtifactKind
	Identifier  InternedString
	Stage       Stage
	ContextHash uint64
}

// NewArtifactKey derives the key for an identifier compiled under cc.
func NewArtifactKey(kind ArtifactKind, identifier string, stage Stage, cc *CompilerContext) ArtifactKey {
	return ArtifactKey{
		Kind:        kind,
		Identifier:  NewInternedString(identifier),
		Stage:       stage,
		ContextHash: cc.CacheKey(),
	}
}

// String renders the key as "kind:identifier:stage:hash".
func (k ArtifactKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%016x", k.Kind, k.Identifier, k.Stage, k.ContextHash)
}
