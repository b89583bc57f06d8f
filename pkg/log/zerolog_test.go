package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Info("batch done",
		Int("glider", 44),
		String("dir", "/data/SEA44/M12_sub_0"),
		Strings("files", []string{"a", "b"}),
		Bool("direct", false),
		Duration("took", 2*time.Second),
		Err(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if got["message"] != "batch done" {
		t.Errorf("message = %v", got["message"])
	}
	if got["glider"] != float64(44) {
		t.Errorf("glider = %v", got["glider"])
	}
	if got["dir"] != "/data/SEA44/M12_sub_0" {
		t.Errorf("dir = %v", got["dir"])
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v", got["error"])
	}
	if got["level"] != "info" {
		t.Errorf("level = %v", got["level"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFileLogger_TruncatesAndWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "run.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("stale line from previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, closeFn, err := NewFileLogger(path, "warn")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Info("filtered out")
	l.Warn("kept")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if strings.Contains(content, "stale line") {
		t.Errorf("log file was not truncated: %q", content)
	}
	if strings.Contains(content, "filtered out") {
		t.Errorf("info line written at warn level: %q", content)
	}
	if !strings.Contains(content, "kept") {
		t.Errorf("warn line missing: %q", content)
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoopLogger()
	l.Debug("x")
	l.Info("x", Int("n", 1))
	l.Warn("x")
	l.Error("x", Err(errors.New("e")))
}
