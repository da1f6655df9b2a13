package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/shade/internal/adapters/cas"      //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/fs"       //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/metrics"  //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/naga"     //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/pipeline" //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/shell"    //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/adapters/watcher"  //nolint:depguard // Wired in app layer
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/shade/internal/engine/cache"
	"go.trai.ch/shade/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components the CLI needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.LoaderNodeID,
			fs.HasherNodeID,
			shell.NodeID,
			naga.NodeID,
			pipeline.NodeID,
			scheduler.NodeID,
			cache.NodeID,
			cas.NodeID,
			watcher.NodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

//nolint:cyclop // One lookup per dependency
func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	includes, err := graft.Dep[ports.IncludeLoader](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}
	compiler, err := graft.Dep[ports.Compiler](ctx)
	if err != nil {
		return nil, err
	}
	linker, err := graft.Dep[ports.Linker](ctx)
	if err != nil {
		return nil, err
	}
	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}
	c, err := graft.Dep[*cache.Cache](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.BuildRecordStore](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	observer, err := graft.Dep[*metrics.Observer](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, includes, hasher, executor, compiler, linker, sched, c, store, w, observer, log), nil
}
