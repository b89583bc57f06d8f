// Package missionwatcher provides input-tree monitoring for gliderbatch.
// When enabled, it watches <root>/SEA<glider>/M<mission> directories for new
// or updated files and queues the mission for reprocessing once its
// directory has been quiet for the debounce delay.
package missionwatcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/gliderbatch"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// Plugin implements mission watching.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	debounceDelay time.Duration

	// Runtime state
	root     string
	logger   gliderbatch.Logger
	trigger  func(gliderbatch.MissionKey)
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce map[gliderbatch.MissionKey]*time.Timer
}

// Config holds configuration options for the mission watcher plugin.
type Config struct {
	// DebounceDelay is how long a mission directory must stay quiet before
	// the mission is queued. Zero uses the runner's Debounce setting.
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config that follows the runner's settings.
func DefaultConfig() Config {
	return Config{}
}

// New creates a new mission watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
		debounce:      make(map[gliderbatch.MissionKey]*time.Timer),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "missionwatcher"
}

// Initialize sets up the watches on the input tree and starts the watch loop.
func (p *Plugin) Initialize(ctx context.Context, cfg gliderbatch.PluginConfig) error {
	p.mu.Lock()
	p.root = cfg.RootInputDir
	p.logger = cfg.Logger
	p.trigger = cfg.Trigger
	if p.debounceDelay <= 0 {
		p.debounceDelay = cfg.Debounce
	}
	p.mu.Unlock()

	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	p.watcher = watcher

	if err := watcher.Add(p.root); err != nil {
		watcher.Close()
		return err
	}
	p.addGliderDirs(p.root)

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("mission watcher started",
		log.String("root", p.root),
		log.Duration("debounce", p.debounceDelay),
		log.Int("watches", len(watcher.WatchList())),
	)

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the watcher and drops pending triggers.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	for k, t := range p.debounce {
		t.Stop()
		delete(p.debounce, k)
	}
	p.mu.Unlock()
	return nil
}

// watchLoop dispatches filesystem events until ctx is canceled.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()
	defer p.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.handle(ctx, event.Name)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("mission watcher error", log.Err(err))
		}
	}
}

// handle classifies a created or written path by its depth below the root.
func (p *Plugin) handle(ctx context.Context, path string) {
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return
	}
	parts := strings.Split(rel, string(filepath.Separator))

	switch len(parts) {
	case 1:
		// New glider directory.
		if _, err := domain.ParseGliderDir(parts[0]); err == nil && isDir(path) {
			p.addWatch(path)
			p.addMissionDirs(path)
		}
	case 2:
		// New mission directory. Staging directories do not parse.
		key, ok := parseKey(parts[0], parts[1])
		if ok && isDir(path) {
			p.addWatch(path)
			p.debounceTrigger(ctx, key)
		}
	case 3:
		if key, ok := parseKey(parts[0], parts[1]); ok {
			p.debounceTrigger(ctx, key)
		}
	}
}

// debounceTrigger (re)arms the mission's timer.
func (p *Plugin) debounceTrigger(ctx context.Context, key gliderbatch.MissionKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.debounce[key]; ok {
		t.Stop()
	}
	p.debounce[key] = time.AfterFunc(p.debounceDelay, func() {
		p.mu.Lock()
		delete(p.debounce, key)
		p.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		p.logger.Info("mission changed", log.String("mission", key.String()))
		p.trigger(key)
	})
}

func (p *Plugin) addGliderDirs(root string) {
	for _, g := range subdirs(root) {
		if _, err := domain.ParseGliderDir(g); err != nil {
			continue
		}
		dir := filepath.Join(root, g)
		p.addWatch(dir)
		p.addMissionDirs(dir)
	}
}

func (p *Plugin) addMissionDirs(gliderDir string) {
	for _, m := range subdirs(gliderDir) {
		if _, err := domain.ParseMissionDir(m); err != nil {
			continue
		}
		p.addWatch(filepath.Join(gliderDir, m))
	}
}

func (p *Plugin) addWatch(dir string) {
	if err := p.watcher.Add(dir); err != nil {
		p.logger.Warn("mission watcher: cannot watch directory", log.String("dir", dir), log.Err(err))
	}
}

func parseKey(gliderDir, missionDir string) (gliderbatch.MissionKey, bool) {
	g, err := domain.ParseGliderDir(gliderDir)
	if err != nil {
		return gliderbatch.MissionKey{}, false
	}
	m, err := domain.ParseMissionDir(missionDir)
	if err != nil {
		return gliderbatch.MissionKey{}, false
	}
	return gliderbatch.MissionKey{GliderID: g, MissionID: m}, true
}

func subdirs(dir string) []string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// Ensure Plugin implements gliderbatch.Plugin.
var _ gliderbatch.Plugin = (*Plugin)(nil)
