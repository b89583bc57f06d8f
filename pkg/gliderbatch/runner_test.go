package gliderbatch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/gliderbatch"
)

type tree struct {
	in, out string
}

func newTree(t *testing.T) tree {
	t.Helper()
	root := t.TempDir()
	return tree{in: filepath.Join(root, "raw"), out: filepath.Join(root, "processed")}
}

// addMission writes n gli/pld pairs for key and creates its output dir.
func (tr tree) addMission(t *testing.T, key gliderbatch.MissionKey, n int) {
	t.Helper()
	in := key.Dir(tr.in)
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.MkdirAll(key.Dir(tr.out), 0o755))
	for i := 1; i <= n; i++ {
		for _, name := range []string{
			fmt.Sprintf("sea%d.%d.gli.sub.%d.gz", key.GliderID, key.MissionID, i),
			fmt.Sprintf("sea%d.%d.pld1.raw.%d.gz", key.GliderID, key.MissionID, i),
		} {
			require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(name), 0o644))
		}
	}
}

func (tr tree) config() gliderbatch.Config {
	cfg := gliderbatch.DefaultConfig()
	cfg.RootInputDir = tr.in
	cfg.RootOutputDir = tr.out
	cfg.BatchSize = 4
	cfg.TailThreshold = 2
	return cfg
}

// productStep writes one .nc file per invocation into the output dir.
type productStep struct {
	mu       sync.Mutex
	requests []gliderbatch.StepRequest
}

func (s *productStep) Process(_ context.Context, req gliderbatch.StepRequest) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(req.OutputDir, fmt.Sprintf("batch%d.nc", req.Batch)), nil, 0o644)
}

func (s *productStep) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := gliderbatch.New(gliderbatch.Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg := newTree(t).config()
	cfg.DataKind = "full"
	_, err = gliderbatch.New(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRunner_RunWithoutStep(t *testing.T) {
	r, err := gliderbatch.New(newTree(t).config())
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRunner_RunStagesLargeMission(t *testing.T) {
	tr := newTree(t)
	big := gliderbatch.MissionKey{GliderID: 44, MissionID: 12}
	small := gliderbatch.MissionKey{GliderID: 44, MissionID: 13}
	tr.addMission(t, big, 9) // [0,4) [4,9): tail of 1 merged
	tr.addMission(t, small, 3)

	cfg := tr.config()
	cfg.ReportDir = filepath.Join(t.TempDir(), "reports")
	step := &productStep{}

	r, err := gliderbatch.New(cfg, gliderbatch.WithProcessingStep(step))
	require.NoError(t, err)
	defer r.Close()

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Missions, 2)

	bigRes, smallRes := report.Missions[0], report.Missions[1]
	assert.Equal(t, gliderbatch.MissionSucceeded, bigRes.Status)
	assert.Equal(t, 2, bigRes.Batches)
	assert.False(t, bigRes.Direct)
	assert.True(t, smallRes.Direct)

	// Batch 1 holds pairs 4..8.
	staged, err := os.ReadDir(domain.StagingDir(big.Dir(tr.in), 1))
	require.NoError(t, err)
	assert.Len(t, staged, 10)

	// The direct mission was not staged.
	_, err = os.Stat(domain.StagingDir(small.Dir(tr.in), 0))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, 3, step.count())

	last, err := r.LastReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, last.RunID)
	assert.FileExists(t, filepath.Join(cfg.ReportDir, "last_run.json"))
}

func TestRunner_RerunWithFewerBatchesRemovesStaleStaging(t *testing.T) {
	tr := newTree(t)
	key := gliderbatch.MissionKey{GliderID: 44, MissionID: 12}
	tr.addMission(t, key, 9)

	run := func(batchSize int) gliderbatch.RunReport {
		cfg := tr.config()
		cfg.BatchSize = batchSize
		r, err := gliderbatch.New(cfg, gliderbatch.WithProcessingStep(&productStep{}))
		require.NoError(t, err)
		defer r.Close()
		report, err := r.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, report.Missions, 1)
		require.Equal(t, gliderbatch.MissionSucceeded, report.Missions[0].Status)
		return report
	}

	// [0,3) [3,6) [6,9), then [0,4) [4,9).
	run(3)
	for _, root := range []string{tr.in, tr.out} {
		assert.DirExists(t, domain.StagingDir(key.Dir(root), 2))
	}
	run(4)
	for _, root := range []string{tr.in, tr.out} {
		assert.DirExists(t, domain.StagingDir(key.Dir(root), 1))
		assert.NoDirExists(t, domain.StagingDir(key.Dir(root), 2))
	}

	// Direct: no staging directory survives.
	run(20)
	for _, root := range []string{tr.in, tr.out} {
		assert.NoDirExists(t, domain.StagingDir(key.Dir(root), 0))
		assert.NoDirExists(t, domain.StagingDir(key.Dir(root), 1))
	}
}

func TestRunner_DatabaseIngestAndHistory(t *testing.T) {
	tr := newTree(t)
	key := gliderbatch.MissionKey{GliderID: 7, MissionID: 2}
	tr.addMission(t, key, 2)

	cfg := tr.config()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "db", "gliders.db")

	r, err := gliderbatch.New(cfg, gliderbatch.WithProcessingStep(&productStep{}))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	history, err := r.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, report.RunID, history[0].RunID)
	assert.Equal(t, 1, history[0].Succeeded)

	last, err := r.LastReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, last.RunID)

	rec, err := r.Ingested(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, key, rec.Mission)
	assert.Equal(t, 1, rec.FileCount)
	require.Len(t, rec.Files, 1)
	assert.Equal(t, ".nc", filepath.Ext(rec.Files[0]))

	_, err = r.Ingested(context.Background(), gliderbatch.MissionKey{GliderID: 7, MissionID: 3})
	assert.ErrorIs(t, err, gliderbatch.ErrNotIngested)
}

func TestRunner_HistoryNeedsDatabase(t *testing.T) {
	r, err := gliderbatch.New(newTree(t).config())
	require.NoError(t, err)
	_, err = r.History(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, err = r.Ingested(context.Background(), gliderbatch.MissionKey{GliderID: 1, MissionID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRunner_PlanHasNoSideEffects(t *testing.T) {
	tr := newTree(t)
	key := gliderbatch.MissionKey{GliderID: 1, MissionID: 1}
	tr.addMission(t, key, 10)
	empty := gliderbatch.MissionKey{GliderID: 1, MissionID: 2}
	tr.addMission(t, empty, 0)
	require.NoError(t, os.MkdirAll(filepath.Join(tr.out, "SEAx"), 0o755))

	r, err := gliderbatch.New(tr.config())
	require.NoError(t, err)

	plans, skipped, err := r.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Len(t, skipped, 1)

	assert.NoError(t, plans[0].Err)
	assert.Equal(t, 3, plans[0].Plan.Len()) // [0,4) [4,8) [8,10)
	assert.ErrorIs(t, plans[1].Err, domain.ErrInputMismatch)

	_, err = os.Stat(domain.StagingDir(key.Dir(tr.in), 0))
	assert.True(t, os.IsNotExist(err))
}

func TestRunner_RunMissionFailureIsInResult(t *testing.T) {
	tr := newTree(t)
	key := gliderbatch.MissionKey{GliderID: 3, MissionID: 3}
	tr.addMission(t, key, 2)

	boom := errors.New("exit status 2")
	r, err := gliderbatch.New(tr.config(), gliderbatch.WithProcessingStep(
		gliderbatch.ProcessingStepFunc(func(context.Context, gliderbatch.StepRequest) error { return boom }),
	))
	require.NoError(t, err)

	res, err := r.RunMission(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, gliderbatch.MissionFailed, res.Status)
	assert.Equal(t, domain.StageExecute, res.FailedAt)
	assert.ErrorIs(t, res.Err, boom)
}

type doneHandler struct {
	gliderbatch.BaseEventHandler
	done    chan gliderbatch.MissionResult
	batches chan gliderbatch.BatchEvent
}

func (h *doneHandler) OnMissionDone(res gliderbatch.MissionResult) { h.done <- res }
func (h *doneHandler) OnBatchDone(ev gliderbatch.BatchEvent)       { h.batches <- ev }

func TestRunner_WatchModeProcessesTriggers(t *testing.T) {
	tr := newTree(t)
	key := gliderbatch.MissionKey{GliderID: 5, MissionID: 1}
	tr.addMission(t, key, 2)

	h := &doneHandler{
		done:    make(chan gliderbatch.MissionResult, 10),
		batches: make(chan gliderbatch.BatchEvent, 10),
	}
	step := &productStep{}
	r, err := gliderbatch.New(tr.config(), gliderbatch.WithProcessingStep(step), gliderbatch.WithEventHandler(h))
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), domain.ErrAlreadyRunning)

	waitDone := func() gliderbatch.MissionResult {
		select {
		case res := <-h.done:
			return res
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for mission")
			return gliderbatch.MissionResult{}
		}
	}

	// Initial full pass, then idle.
	assert.Equal(t, key, waitDone().Mission)
	assert.Eventually(t, func() bool { return r.Status() == gliderbatch.StateIdle },
		2*time.Second, 10*time.Millisecond, "runner should be idle after the initial pass")

	// Triggers queued together are processed once.
	r.Trigger(key)
	r.Trigger(key)
	assert.Equal(t, key, waitDone().Mission)

	ev := <-h.batches
	assert.Equal(t, -1, ev.Batch)

	require.NoError(t, r.Stop())
	assert.Equal(t, gliderbatch.StateStopped, r.Status())
	assert.ErrorIs(t, r.Stop(), domain.ErrNotRunning)
}

// countingPlugin records Initialize and Shutdown calls.
type countingPlugin struct {
	mu        sync.Mutex
	inits     int
	shutdowns int
}

func (p *countingPlugin) Name() string { return "counting" }

func (p *countingPlugin) Initialize(context.Context, gliderbatch.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return nil
}

func (p *countingPlugin) Shutdown(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
	return nil
}

func (p *countingPlugin) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inits, p.shutdowns
}

func TestRunner_RestartAfterCrashShutsPluginsDown(t *testing.T) {
	tr := newTree(t)
	key := gliderbatch.MissionKey{GliderID: 5, MissionID: 1}
	plugin := &countingPlugin{}

	r, err := gliderbatch.New(tr.config(),
		gliderbatch.WithProcessingStep(&productStep{}),
		gliderbatch.WithPlugin(plugin),
	)
	require.NoError(t, err)

	// The output root does not exist yet, so the initial pass fails.
	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return r.Status() == gliderbatch.StateCrashed },
		2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { _, down := plugin.counts(); return down == 1 },
		2*time.Second, 10*time.Millisecond, "plugins should be shut down after a crash")
	assert.ErrorIs(t, r.Stop(), domain.ErrNotRunning)

	tr.addMission(t, key, 2)
	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return r.Status() == gliderbatch.StateIdle },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Stop())
	inits, downs := plugin.counts()
	assert.Equal(t, 2, inits)
	assert.Equal(t, 2, downs)
}
