package app

import (
	"context"
	"errors"
	"testing"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/planner"
)

func pairs(n int) domain.AlignedFileSet {
	var s domain.AlignedFileSet
	for i := 1; i <= n; i++ {
		s.Gli = append(s.Gli, domain.FileRecord{Path: "gli", Kind: domain.KindGli, Segment: i})
		s.Pld = append(s.Pld, domain.FileRecord{Path: "pld", Kind: domain.KindPld, Segment: i})
	}
	return s
}

func mustPlan(t *testing.T, batchSize, n int) domain.BatchPlan {
	t.Helper()
	plan, err := planner.New(batchSize, 1).Plan(domain.MissionKey{GliderID: 44, MissionID: 12}, n, "/in/SEA44/M12", "/out/SEA44/M12")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	return plan
}

func newTestExecutor(log *callLog, stager *fakeStager, step *fakeStep, obs BatchObserver) *Executor {
	return NewExecutor(ExecutorConfig{
		Kind:    domain.DataKindRaw,
		Options: domain.DefaultStepOptions(),
	}, stager, step, &mockLogger{}, obs)
}

func TestExecutor_Direct(t *testing.T) {
	log := &callLog{}
	step := &fakeStep{log: log}
	e := newTestExecutor(log, &fakeStager{log: log}, step, nil)

	plan := mustPlan(t, 100, 42)
	if err := e.Execute(context.Background(), plan, pairs(42)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	calls := log.all()
	if len(calls) != 1 || calls[0] != "step SEA44/M12 -1" {
		t.Fatalf("calls = %v, want one direct step and no staging", calls)
	}
	req := step.requests[0]
	if req.InputDir != "/in/SEA44/M12" || req.OutputDir != "/out/SEA44/M12" {
		t.Errorf("direct request dirs = %s, %s", req.InputDir, req.OutputDir)
	}
	if req.Kind != domain.DataKindRaw || len(req.Options.Steps) != 4 {
		t.Errorf("request settings = %+v", req)
	}
}

func TestExecutor_StagedInOrder(t *testing.T) {
	log := &callLog{}
	step := &fakeStep{log: log}
	obs := &recordingObserver{}
	e := newTestExecutor(log, &fakeStager{log: log}, step, obs)

	plan := mustPlan(t, 2, 5)
	if err := e.Execute(context.Background(), plan, pairs(5)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{
		"stage 0", "step SEA44/M12 0",
		"stage 1", "step SEA44/M12 1",
		"stage 2", "step SEA44/M12 2",
	}
	got := log.all()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}

	for i, req := range step.requests {
		if req.Batch != i {
			t.Errorf("request %d has batch %d", i, req.Batch)
		}
		if req.InputDir != domain.StagingDir("/in/SEA44/M12", i) {
			t.Errorf("request %d input = %s", i, req.InputDir)
		}
	}
	if len(obs.started) != 3 || len(obs.done) != 3 {
		t.Errorf("observer saw %v started, %v done", obs.started, obs.done)
	}
}

func TestExecutor_PrunesStaleStaging(t *testing.T) {
	tests := []struct {
		name string
		size int
		n    int
		want string
	}{
		{"staged keeps its batches", 2, 5, "/in/SEA44/M12 /out/SEA44/M12 3"},
		{"direct keeps none", 100, 5, "/in/SEA44/M12 /out/SEA44/M12 0"},
	}

	for _, tt := range tests {
		log := &callLog{}
		stager := &fakeStager{log: log}
		e := newTestExecutor(log, stager, &fakeStep{log: log}, nil)

		if err := e.Execute(context.Background(), mustPlan(t, tt.size, tt.n), pairs(tt.n)); err != nil {
			t.Fatalf("%s: Execute() error = %v", tt.name, err)
		}
		if len(stager.prunes) != 1 || stager.prunes[0] != tt.want {
			t.Errorf("%s: prunes = %v, want [%s]", tt.name, stager.prunes, tt.want)
		}
	}
}

func TestExecutor_StopsAtFirstStepFailure(t *testing.T) {
	log := &callLog{}
	boom := errors.New("exit status 1")
	step := &fakeStep{log: log, fail: func(r domain.StepRequest) error {
		if r.Batch == 1 {
			return boom
		}
		return nil
	}}
	e := newTestExecutor(log, &fakeStager{log: log}, step, nil)

	err := e.Execute(context.Background(), mustPlan(t, 2, 6), pairs(6))
	if !errors.Is(err, domain.ErrProcessingStep) || !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want ProcessingStepError wrapping cause", err)
	}
	var pse *domain.ProcessingStepError
	if !errors.As(err, &pse) || pse.Batch != 1 {
		t.Errorf("failed batch = %+v, want 1", pse)
	}

	for _, c := range log.all() {
		if c == "stage 2" || c == "step SEA44/M12 2" {
			t.Errorf("batch 2 must not run after batch 1 failed: %v", log.all())
		}
	}
}

func TestExecutor_StagingFailure(t *testing.T) {
	log := &callLog{}
	stager := &fakeStager{log: log, fail: func(b domain.Batch) error {
		if b.Index == 0 {
			return &domain.StagingIOError{Op: "copy", Path: "x", Err: errors.New("disk full")}
		}
		return nil
	}}
	step := &fakeStep{log: log}
	e := newTestExecutor(log, stager, step, nil)

	err := e.Execute(context.Background(), mustPlan(t, 2, 4), pairs(4))
	if !errors.Is(err, domain.ErrStagingIO) {
		t.Fatalf("Execute() error = %v, want ErrStagingIO", err)
	}
	if len(step.requests) != 0 {
		t.Errorf("step ran %d times after staging failed", len(step.requests))
	}
}

func TestExecutor_Canceled(t *testing.T) {
	log := &callLog{}
	e := newTestExecutor(log, &fakeStager{log: log}, &fakeStep{log: log}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Execute(ctx, mustPlan(t, 2, 4), pairs(4))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if len(log.all()) != 0 {
		t.Errorf("calls after cancel = %v", log.all())
	}
}
