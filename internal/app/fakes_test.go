package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// callLog records the order of stage and step calls across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.calls...)
}

type fakeStager struct {
	log    *callLog
	fail   func(domain.Batch) error
	prunes []string
}

func (f *fakeStager) Prune(_ context.Context, inputDir, outputDir string, keep int) error {
	f.prunes = append(f.prunes, fmt.Sprintf("%s %s %d", inputDir, outputDir, keep))
	return nil
}

func (f *fakeStager) Stage(_ context.Context, b domain.Batch, _ domain.AlignedFileSet) error {
	f.log.add("stage %d", b.Index)
	if f.fail != nil {
		return f.fail(b)
	}
	return nil
}

type fakeStep struct {
	log      *callLog
	mu       sync.Mutex
	requests []domain.StepRequest
	fail     func(domain.StepRequest) error
}

func (f *fakeStep) Process(_ context.Context, req domain.StepRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	f.log.add("step %s %d", req.Mission, req.Batch)
	if f.fail != nil {
		return f.fail(req)
	}
	return nil
}

type fakePost struct {
	log  *callLog
	fail map[domain.Stage]error
}

func (f *fakePost) do(stage domain.Stage, key domain.MissionKey) error {
	f.log.add("%s %s", stage, key)
	return f.fail[stage]
}

func (f *fakePost) Recombine(_ context.Context, key domain.MissionKey) error {
	return f.do(domain.StageRecombine, key)
}

func (f *fakePost) Geocode(_ context.Context, key domain.MissionKey, _ string) error {
	return f.do(domain.StageGeocode, key)
}

func (f *fakePost) Plot(_ context.Context, key domain.MissionKey) error {
	return f.do(domain.StagePlot, key)
}

func (f *fakePost) Ingest(_ context.Context, key domain.MissionKey, _ string) error {
	return f.do(domain.StageIngest, key)
}

type memReports struct {
	saved []domain.RunReport
}

func (m *memReports) Load(context.Context) (domain.RunReport, error) {
	if len(m.saved) == 0 {
		return domain.RunReport{}, nil
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *memReports) Save(_ context.Context, r domain.RunReport) error {
	m.saved = append(m.saved, r)
	return nil
}

type recordingObserver struct {
	started []int
	done    []int
}

func (r *recordingObserver) OnBatchStart(_ domain.BatchPlan, b domain.Batch) {
	r.started = append(r.started, b.Index)
}

func (r *recordingObserver) OnBatchDone(_ domain.BatchPlan, b domain.Batch, _ error, _ time.Duration) {
	r.done = append(r.done, b.Index)
}

// missionTree creates <in>/SEA<g>/M<m> with n gli/pld pairs and the matching
// output directory.
func missionTree(t *testing.T, inRoot, outRoot string, key domain.MissionKey, n int) {
	t.Helper()

	in := key.Dir(inRoot)
	for _, dir := range []string{in, key.Dir(outRoot)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for i := 1; i <= n; i++ {
		for _, name := range []string{
			fmt.Sprintf("sea%03d.%d.gli.sub.%d.gz", key.GliderID, key.MissionID, i),
			fmt.Sprintf("sea%03d.%d.pld1.raw.%d.gz", key.GliderID, key.MissionID, i),
		} {
			if err := os.WriteFile(filepath.Join(in, name), []byte(name), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
}
