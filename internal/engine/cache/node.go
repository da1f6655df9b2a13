package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/shade/internal/adapters/metrics" //nolint:depguard // Wired in engine wiring
)

// NodeID is the unique identifier for the artifact cache Graft node.
const NodeID graft.ID = "engine.cache"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{metrics.NodeID},
		Run: func(ctx context.Context) (*Cache, error) {
			observer, err := graft.Dep[*metrics.Observer](ctx)
			if err != nil {
				return nil, err
			}
			return New(WithObserver(observer)), nil
		},
	})
}
