// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/shade/internal/adapters/cas"
	_ "go.trai.ch/shade/internal/adapters/config"
	_ "go.trai.ch/shade/internal/adapters/fs"
	_ "go.trai.ch/shade/internal/adapters/logger"
	_ "go.trai.ch/shade/internal/adapters/metrics"
	_ "go.trai.ch/shade/internal/adapters/naga"
	_ "go.trai.ch/shade/internal/adapters/pipeline"
	_ "go.trai.ch/shade/internal/adapters/shell"
	_ "go.trai.ch/shade/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/shade/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/shade/internal/app"
	_ "go.trai.ch/shade/internal/engine/cache"
	_ "go.trai.ch/shade/internal/engine/scheduler"
)
