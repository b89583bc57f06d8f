package gliderbatch

import (
	"context"
	"sort"

	"github.com/bft-labs/gliderbatch/internal/app"
	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/ports"
)

// Start runs every mission once and then keeps processing missions queued
// through Trigger until Stop is called or ctx is canceled. It returns
// immediately after starting the processing goroutine.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.checkStep(); err != nil {
		return err
	}

	r.mu.Lock()
	if !r.lifecycle.CanStart() {
		r.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		r.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		RootInputDir:  r.config.RootInputDir,
		RootOutputDir: r.config.RootOutputDir,
		Debounce:      r.config.Debounce,
		Logger:        r.logger,
		Trigger:       r.Trigger,
	}
	for _, p := range r.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = r.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			started := r.started
			r.started = nil
			r.mu.Unlock()
			r.shutdown(started)
			return err
		}
		r.started = append(r.started, p)
		r.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	r.lifecycle.AddWorker()
	go func() {
		defer r.lifecycle.WorkerDone()
		r.watchLoop(runCtx)
	}()

	r.mu.Unlock()
	return nil
}

// Trigger queues a mission for processing in watch mode. A mission queued
// several times before it runs is processed once. It never blocks.
func (r *Runner) Trigger(key MissionKey) {
	r.mu.Lock()
	r.pending[key] = struct{}{}
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// watchLoop runs the initial full pass and then drains the queue.
func (r *Runner) watchLoop(ctx context.Context) {
	if err := r.lifecycle.TransitionTo(app.StateProcessing, "initial run"); err != nil {
		r.logger.Error("failed to transition to processing", ports.Err(err))
		return
	}
	if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("initial run failed", ports.Err(err))
		_ = r.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		r.lifecycle.Cancel()
		r.shutdownPlugins()
		return
	}
	if err := r.lifecycle.TransitionTo(app.StateIdle, "waiting for changes"); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.notify:
		}

		keys := r.takePending()
		if len(keys) == 0 {
			continue
		}
		if err := r.lifecycle.TransitionTo(app.StateProcessing, "missions changed"); err != nil {
			return
		}
		for _, key := range keys {
			if ctx.Err() != nil {
				return
			}
			res, _ := r.RunMission(ctx, key)
			r.logger.Info("watched mission processed",
				ports.String("mission", key.String()),
				ports.String("status", string(res.Status)),
			)
		}
		if err := r.lifecycle.TransitionTo(app.StateIdle, "waiting for changes"); err != nil {
			return
		}
	}
}

// takePending empties the queue and returns its missions in key order.
func (r *Runner) takePending() []MissionKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]MissionKey, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	r.pending = make(map[MissionKey]struct{})

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].GliderID != keys[j].GliderID {
			return keys[i].GliderID < keys[j].GliderID
		}
		return keys[i].MissionID < keys[j].MissionID
	})
	return keys
}

// Stop cancels processing and waits for the mission in progress to stop.
// Returns ErrShutdownTimeout if it does not stop within 30 seconds.
func (r *Runner) Stop() error {
	r.mu.Lock()

	if !r.lifecycle.CanStop() {
		r.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	err := r.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	r.shutdownPlugins()

	if err != nil {
		_ = r.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = r.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// shutdownPlugins shuts the initialized plugins down in reverse order. It is
// a no-op when none are running.
func (r *Runner) shutdownPlugins() {
	r.mu.Lock()
	started := r.started
	r.started = nil
	r.mu.Unlock()
	r.shutdown(started)
}

// shutdown shuts plugins down in reverse order. r.mu must not be held.
func (r *Runner) shutdown(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			r.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Runner) Status() State {
	return State(r.lifecycle.State())
}
