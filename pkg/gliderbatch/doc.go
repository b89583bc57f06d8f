// Package gliderbatch provides an embeddable batch runner for glider sensor
// logs.
//
// A Runner discovers missions under an output root laid out as
// <root>/SEA<glider>/M<mission>, pairs each mission's navigation (gli) and
// payload (pld) files, splits large missions into staged batches and drives
// an external processing step over them, followed by the downstream
// recombine, geocode, plot and ingest stages. It can be used from the
// gliderbatch CLI or embedded in other Go programs.
//
// # Basic Usage
//
//	cfg := gliderbatch.DefaultConfig()
//	cfg.RootInputDir = "/data/gliders/raw"
//	cfg.RootOutputDir = "/data/gliders/processed"
//	cfg.StepCommand = []string{"python3", "process_pyglider.py",
//	    "{glider}", "{mission}", "{kind}", "{input}", "{output}"}
//
//	r, err := gliderbatch.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	report, err := r.Run(context.Background())
//
// Run attempts every mission. A failing mission is recorded in the returned
// [RunReport] and does not stop the others.
//
// # Dependency Injection
//
// The external collaborators can be replaced, for tests or for in-process
// implementations:
//
//	r, err := gliderbatch.New(cfg,
//	    gliderbatch.WithProcessingStep(myStep),
//	    gliderbatch.WithPostProcessor(myPost),
//	    gliderbatch.WithLogger(logger),
//	)
//
// # Watch Mode
//
// [Runner.Start] runs every mission once and then reprocesses missions as
// they are reported through [Runner.Trigger], typically by the
// plugins/missionwatcher plugin. Missions are processed one at a time.
// [Runner.Stop] waits for the mission in progress to stop.
package gliderbatch
