package gliderbatch

import (
	"context"
	"time"
)

// Plugin extends a Runner in watch mode.
type Plugin interface {
	// Name returns the plugin identifier.
	Name() string
	// Initialize is called by Start. ctx is canceled when the runner stops.
	Initialize(ctx context.Context, cfg PluginConfig) error
	// Shutdown is called by Stop.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	RootInputDir  string
	RootOutputDir string
	Debounce      time.Duration
	Logger        Logger

	// Trigger queues a mission for reprocessing. It never blocks.
	Trigger func(MissionKey)
}
