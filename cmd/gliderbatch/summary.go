package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/bft-labs/gliderbatch/pkg/gliderbatch"
)

var (
	okColor      = color.New(color.FgHiGreen)
	errorColor   = color.New(color.FgRed)
	skipColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
	missionColor = color.New(color.FgCyan, color.Bold)
)

func statusLabel(s gliderbatch.MissionStatus) string {
	switch s {
	case gliderbatch.MissionSucceeded:
		return okColor.Sprint("ok     ")
	case gliderbatch.MissionFailed:
		return errorColor.Sprint("FAILED ")
	default:
		return skipColor.Sprint("skipped")
	}
}

func batchesLabel(res gliderbatch.MissionResult) string {
	if res.Direct {
		return "direct"
	}
	return fmt.Sprintf("%d batches", res.Batches)
}

func printResult(w io.Writer, res gliderbatch.MissionResult) {
	line := fmt.Sprintf("%s %s", statusLabel(res.Status), missionColor.Sprintf("%-12s", res.Mission))
	if res.Status != gliderbatch.MissionSkipped {
		line += fmt.Sprintf(" %4d pairs  %-11s %s", res.Pairs, batchesLabel(res),
			dimColor.Sprint(res.Duration().Round(time.Millisecond)))
	}
	if res.Status == gliderbatch.MissionFailed {
		line += errorColor.Sprintf("  [%s] %s", res.FailedAt, res.Error)
	}
	fmt.Fprintln(w, line)
}

func printReport(w io.Writer, report gliderbatch.RunReport) {
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "%s %s %s\n", skipColor.Sprint("ignored"), s.Path, dimColor.Sprint(s.Reason))
	}
	for _, res := range report.Missions {
		printResult(w, res)
	}

	ok, failed, skipped := report.Counts()
	summary := fmt.Sprintf("%d succeeded, %d failed, %d skipped", ok, failed, skipped)
	if failed > 0 {
		fmt.Fprintln(w, errorColor.Sprint(summary))
	} else {
		fmt.Fprintln(w, okColor.Sprint(summary))
	}
}

func printPlans(w io.Writer, plans []gliderbatch.PlanResult, skipped []gliderbatch.SkippedCandidate) {
	for _, s := range skipped {
		fmt.Fprintf(w, "%s %s %s\n", skipColor.Sprint("ignored"), s.Path, dimColor.Sprint(s.Reason))
	}
	for _, p := range plans {
		if p.Err != nil {
			fmt.Fprintf(w, "%s %s\n", missionColor.Sprintf("%-12s", p.Mission), errorColor.Sprint(p.Err))
			continue
		}
		if p.Plan.Direct {
			fmt.Fprintf(w, "%s %4d pairs  direct\n", missionColor.Sprintf("%-12s", p.Mission), p.Plan.Total)
			continue
		}
		fmt.Fprintf(w, "%s %4d pairs  %d batches\n", missionColor.Sprintf("%-12s", p.Mission), p.Plan.Total, p.Plan.Len())
		for _, b := range p.Plan.Batches {
			fmt.Fprintf(w, "  %3d %-10s %s\n", b.Index, b.Range, dimColor.Sprint(b.InputDir))
		}
	}
}

func printHistory(w io.Writer, runs []gliderbatch.RunSummary) {
	if len(runs) == 0 {
		return
	}
	fmt.Fprintln(w, "history:")
	for _, run := range runs {
		counts := fmt.Sprintf("%d ok, %d failed, %d skipped", run.Succeeded, run.Failed, run.Skipped)
		if run.Failed > 0 {
			counts = errorColor.Sprint(counts)
		}
		fmt.Fprintf(w, "  %s  %s  %s\n", dimColor.Sprint(run.RunID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"), counts)
	}
}

func printIngested(w io.Writer, missions []gliderbatch.IngestedMission) {
	if len(missions) == 0 {
		return
	}
	fmt.Fprintln(w, "ingested:")
	for _, m := range missions {
		fmt.Fprintf(w, "  %s %4d files  %s\n", missionColor.Sprintf("%-12s", m.Mission), len(m.Files),
			dimColor.Sprint(m.IngestedAt.Local().Format("2006-01-02 15:04:05")))
	}
}

// missionPrinter prints each mission result as watch mode completes it.
type missionPrinter struct {
	gliderbatch.BaseEventHandler
	out io.Writer
}

func (p *missionPrinter) OnMissionDone(res gliderbatch.MissionResult) {
	printResult(p.out, res)
}
