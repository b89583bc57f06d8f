package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/bft-labs/gliderbatch/pkg/gliderbatch"
)

func TestParseMissionArgs(t *testing.T) {
	key, err := parseMissionArgs([]string{"44", "12"})
	if err != nil {
		t.Fatalf("parseMissionArgs: %v", err)
	}
	if key != (gliderbatch.MissionKey{GliderID: 44, MissionID: 12}) {
		t.Errorf("key = %+v", key)
	}

	for _, args := range [][]string{{"SEA44", "12"}, {"44", "M12"}, {"-1", "2"}} {
		if _, err := parseMissionArgs(args); err == nil {
			t.Errorf("parseMissionArgs(%v) should fail", args)
		}
	}
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	report := gliderbatch.RunReport{
		Skipped: []gliderbatch.SkippedCandidate{{Path: "/out/SEAold", Reason: "not a glider"}},
		Missions: []gliderbatch.MissionResult{
			{Mission: gliderbatch.MissionKey{GliderID: 44, MissionID: 12}, Status: gliderbatch.MissionSucceeded,
				Pairs: 250, Batches: 3, StartedAt: start, FinishedAt: start.Add(2 * time.Second)},
			{Mission: gliderbatch.MissionKey{GliderID: 44, MissionID: 13}, Status: gliderbatch.MissionFailed,
				Pairs: 4, Batches: 1, Direct: true, FailedAt: "execute", Error: "exit status 1",
				Err: errors.New("exit status 1"), StartedAt: start, FinishedAt: start},
			{Mission: gliderbatch.MissionKey{GliderID: 45, MissionID: 1}, Status: gliderbatch.MissionSkipped},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"ignored /out/SEAold not a glider",
		"ok      SEA44/M12",
		"3 batches",
		"FAILED  SEA44/M13",
		"direct",
		"[execute] exit status 1",
		"skipped SEA45/M1",
		"1 succeeded, 1 failed, 1 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintIngested(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printIngested(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("no missions should print nothing, got %q", buf.String())
	}

	printIngested(&buf, []gliderbatch.IngestedMission{{
		MissionRecord: gliderbatch.MissionRecord{
			Mission:    gliderbatch.MissionKey{GliderID: 44, MissionID: 12},
			FileCount:  2,
			IngestedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Files: []string{"/out/SEA44/M12/a.nc", "/out/SEA44/M12/b.nc"},
	}})
	out := buf.String()
	for _, want := range []string{"ingested:", "SEA44/M12", "2 files"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
