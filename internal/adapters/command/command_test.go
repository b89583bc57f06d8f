package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

type fakeIngester struct {
	key domain.MissionKey
	dir string
}

func (f *fakeIngester) Ingest(_ context.Context, key domain.MissionKey, dir string) error {
	f.key, f.dir = key, dir
	return nil
}

func TestExpand(t *testing.T) {
	tmpl := []string{"proc", "{glider}", "M{mission}", "--in={input}", "{unknown}"}
	got := Expand(tmpl, Vars{"glider": "44", "mission": "12", "input": "/data/in"})
	assert.Equal(t, []string{"proc", "44", "M12", "--in=/data/in", "{unknown}"}, got)
	assert.Equal(t, "proc", tmpl[0], "template must not be modified")
}

func TestJoinSteps(t *testing.T) {
	assert.Equal(t, "1,1,0,1", JoinSteps([]int{1, 1, 0, 1}))
	assert.Equal(t, "", JoinSteps(nil))
}

func TestTail(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("line\n")
	}
	b.WriteString("last\n")
	got := tail(b.String(), 5)
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, "last", lines[4])
}

func TestRunner_Failure(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner(nil)
	err := r.Run(context.Background(), []string{"sh", "-c", "echo oops >&2; exit 3"})
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 3, cerr.ExitCode)
	assert.Contains(t, cerr.Output, "oops")
	assert.Contains(t, cerr.Error(), "status 3")
}

func TestRunner_EmptyCommand(t *testing.T) {
	err := NewRunner(nil).Run(context.Background(), nil)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "empty command")
}

func TestRunner_Canceled(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewRunner(nil).Run(ctx, []string{"sh", "-c", "sleep 5"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_CanceledKillsChildren(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The trailing echo keeps sh from exec'ing sleep, so sleep is a
	// grandchild holding the output pipe open.
	start := time.Now()
	err := NewRunner(nil).Run(ctx, []string{"sh", "-c", "sleep 5; echo done"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 1500*time.Millisecond)
}

func TestStep_Process(t *testing.T) {
	skipWithoutShell(t)

	out := filepath.Join(t.TempDir(), "args.txt")
	step := NewStep([]string{"sh", "-c", `echo "$@" > ` + out, "sh",
		"{glider}", "{mission}", "{kind}", "{input}", "{output}", "{steps}", "{batch}"}, nil)

	err := step.Process(context.Background(), domain.StepRequest{
		Mission:   domain.MissionKey{GliderID: 44, MissionID: 12},
		Kind:      domain.DataKindRaw,
		InputDir:  "/in/SEA44/M12_sub_1",
		OutputDir: "/out/SEA44/M12_sub_1",
		Options:   domain.DefaultStepOptions(),
		Batch:     1,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "44 12 raw /in/SEA44/M12_sub_1 /out/SEA44/M12_sub_1 1,1,1,1 1\n", string(data))
}

func TestPostProcessor(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	record := func(name string) []string {
		return []string{"sh", "-c", `echo "$@" > ` + filepath.Join(dir, name), "sh", "{glider}", "{mission}", "{dataset}"}
	}

	ing := &fakeIngester{}
	p := NewPostProcessor(PostProcessorConfig{
		Recombine: record("recombine"),
		Geocode:   record("geocode"),
	}, ing, nil)

	key := domain.MissionKey{GliderID: 7, MissionID: 3}
	ctx := context.Background()

	require.NoError(t, p.Recombine(ctx, key))
	require.NoError(t, p.Geocode(ctx, key, "complete_mission"))
	require.NoError(t, p.Plot(ctx, key), "unconfigured stage is a no-op")
	require.NoError(t, p.Ingest(ctx, key, "/out/SEA7/M3"))

	data, err := os.ReadFile(filepath.Join(dir, "recombine"))
	require.NoError(t, err)
	assert.Equal(t, "7 3 {dataset}\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "geocode"))
	require.NoError(t, err)
	assert.Equal(t, "7 3 complete_mission\n", string(data))

	assert.Equal(t, key, ing.key)
	assert.Equal(t, "/out/SEA7/M3", ing.dir)
}

func TestPostProcessor_IngestCommandFallback(t *testing.T) {
	skipWithoutShell(t)

	p := NewPostProcessor(PostProcessorConfig{Ingest: []string{"sh", "-c", "exit 1"}}, nil, nil)
	err := p.Ingest(context.Background(), domain.MissionKey{GliderID: 1, MissionID: 1}, "/out")
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 1, cerr.ExitCode)
}
