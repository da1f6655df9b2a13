package ports

import (
	"time"

	"go.trai.ch/shade/internal/core/domain"
)

// CacheObserver receives artifact cache events, typically to export metrics.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache_observer.go -destination=mocks/mock_cache_observer.go -package=mocks
type CacheObserver interface {
	// Hit is called when a lookup is served from the cache.
	Hit(kind domain.ArtifactKind)
	// Miss is called when a lookup must build the artifact.
	Miss(kind domain.ArtifactKind)
	// Built is called when a build function returns.
	Built(kind domain.ArtifactKind, elapsed time.Duration, err error)
	// Discarded is called when a finished build is thrown away instead of cached.
	Discarded(kind domain.ArtifactKind, reason domain.DiscardReason)
	// Released is called when artifacts are torn down.
	Released(kind domain.ArtifactKind, count int)
}
