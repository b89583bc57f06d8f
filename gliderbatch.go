// Package gliderbatch processes glider sensor logs in bounded batches.
//
// Example usage:
//
//	cfg := gliderbatch.DefaultConfig()
//	cfg.RootInputDir = "/data/raw"
//	cfg.RootOutputDir = "/data/nc"
//	cfg.StepCommand = []string{"process", "{input}", "{output}", "{kind}", "{steps}"}
//	report, err := gliderbatch.Run(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For events, plugins or custom collaborators use pkg/gliderbatch directly.
package gliderbatch

import (
	"context"

	lib "github.com/bft-labs/gliderbatch/pkg/gliderbatch"
)

// Config holds the configuration of a batch run.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = lib.Config

// RunReport aggregates one run over all missions.
type RunReport = lib.RunReport

// Run processes every mission under cfg.RootOutputDir once and returns the
// report. It blocks until every mission has finished or ctx is canceled.
func Run(ctx context.Context, cfg Config) (RunReport, error) {
	r, err := lib.New(cfg)
	if err != nil {
		return RunReport{}, err
	}
	defer r.Close()
	return r.Run(ctx)
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, RootInputDir, RootOutputDir and StepCommand must be set
// before calling Run.
func DefaultConfig() Config {
	return lib.DefaultConfig()
}
