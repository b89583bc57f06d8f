package missionwatcher

import "github.com/bft-labs/gliderbatch/pkg/gliderbatch"

// WithMissionWatcher returns a gliderbatch Option that enables input-tree
// watching. Missions whose directories change are queued with
// Runner.Trigger while the runner is started.
//
// Usage:
//
//	r, err := gliderbatch.New(cfg,
//	    missionwatcher.WithMissionWatcher(missionwatcher.Config{
//	        DebounceDelay: time.Minute,
//	    }),
//	)
func WithMissionWatcher(cfg Config) gliderbatch.Option {
	return gliderbatch.WithPlugin(New(cfg))
}

// WithDefaultMissionWatcher returns a gliderbatch Option that enables
// mission watching with the runner's debounce setting.
func WithDefaultMissionWatcher() gliderbatch.Option {
	return WithMissionWatcher(DefaultConfig())
}
