package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/gliderbatch/internal/cliconfig"
	"github.com/bft-labs/gliderbatch/pkg/gliderbatch"
	"github.com/bft-labs/gliderbatch/pkg/log"
	"github.com/bft-labs/gliderbatch/plugins/missionwatcher"
)

const helpDescription = `
Process glider missions in bounded batches.

Each mission under <root-output-dir>/SEA<glider>/M<mission> is paired with its
raw navigation (gli) and payload (pld) files under <root-input-dir>. Missions
with more pairs than --batch-size are split into contiguous batches that are
staged into <mission>_sub_<n> directories and processed one at a time, then
recombined, geocoded, plotted and ingested.

Configuration precedence: flags > GLIDERBATCH_* environment > config file.
`

var exampleUsage = strings.TrimSpace(`
  gliderbatch --root-input-dir /data/raw --root-output-dir /data/nc --step-command "process {input} {output} {kind} {steps}"
  gliderbatch plan --config $HOME/.gliderbatch/config.toml
  gliderbatch mission 44 12 --batch-size 50
  gliderbatch --watch --debounce 2m
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the state shared by every command.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  log.Logger
	closeFn func() error
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "gliderbatch",
		Short:         "Process glider missions in bounded batches",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete":
				return nil
			}
			if p := cmd.Parent(); p != nil && p.Name() == "completion" {
				return nil
			}
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAll(cmd.Context())
		},
	}

	a.bindFlags(root.PersistentFlags())
	root.AddCommand(a.planCommand(), a.missionCommand(), a.statusCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("gliderbatch: "+err.Error()))
		os.Exit(1)
	}
}

func (a *app) bindFlags(f *pflag.FlagSet) {
	cfg := &a.cfg

	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.gliderbatch/config.toml)")
	f.StringVar(&cfg.RootInputDir, "root-input-dir", "", "root of the raw files (<root>/SEA<glider>/M<mission>)")
	f.StringVar(&cfg.RootOutputDir, "root-output-dir", "", "root of the processed products; missions are discovered here")

	f.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "maximum file pairs per batch")
	f.IntVar(&cfg.TailThreshold, "tail-threshold", cfg.TailThreshold, "smallest final batch kept on its own")
	f.StringVar(&cfg.DataKind, "data-kind", cfg.DataKind, "payload files to process: raw or sub")
	f.IntSliceVar(&cfg.Steps, "steps", cfg.Steps, "stage switches passed to the processing step")
	f.StringVar(&cfg.DatasetTag, "dataset-tag", cfg.DatasetTag, "dataset tag passed to the geocode stage")

	f.Var(cliconfig.NewCommandFlag(&cfg.StepCommand), "step-command", "processing step command ({input} {output} {kind} {steps} {batch} ...)")
	f.Var(cliconfig.NewCommandFlag(&cfg.RecombineCommand), "recombine-command", "recombine command (empty disables)")
	f.Var(cliconfig.NewCommandFlag(&cfg.GeocodeCommand), "geocode-command", "geocode command (empty disables)")
	f.Var(cliconfig.NewCommandFlag(&cfg.PlotCommand), "plot-command", "plot command (empty disables)")
	f.Var(cliconfig.NewCommandFlag(&cfg.IngestCommand), "ingest-command", "ingest command, used when no database is set")

	f.StringVar(&cfg.DatabasePath, "database", cfg.DatabasePath, "SQLite database for ingestion and run history")
	f.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "directory for last_run.json (defaults to root-output-dir)")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write JSON logs to this file as well as stderr")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "keep running and reprocess missions whose input changes")
	f.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "quiet period before a changed mission is reprocessed")
}

// setup loads the config file (default $HOME/.gliderbatch/config.toml),
// applies environment and flag overrides, validates, and opens the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	// GLIDERBATCH_* override the file but not explicit flags.
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger, closeFn, err := log.NewFileLogger(a.cfg.LogFile, a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeFn = closeFn

	logger.Info("configuration",
		log.String("root_input_dir", a.cfg.RootInputDir),
		log.String("root_output_dir", a.cfg.RootOutputDir),
		log.Int("batch_size", a.cfg.BatchSize),
		log.Int("tail_threshold", a.cfg.TailThreshold),
		log.String("data_kind", a.cfg.DataKind),
		log.Any("steps", a.cfg.Steps),
		log.Strings("step_command", a.cfg.StepCommand),
		log.String("database", a.cfg.DatabasePath),
		log.Bool("watch", a.cfg.Watch),
	)
	return nil
}

func (a *app) close() error {
	if a.closeFn != nil {
		return a.closeFn()
	}
	return nil
}

// newRunner converts the CLI config into a library Runner.
func (a *app) newRunner(opts ...gliderbatch.Option) (*gliderbatch.Runner, error) {
	libCfg := gliderbatch.Config{
		RootInputDir:     a.cfg.RootInputDir,
		RootOutputDir:    a.cfg.RootOutputDir,
		BatchSize:        a.cfg.BatchSize,
		TailThreshold:    a.cfg.TailThreshold,
		DataKind:         a.cfg.DataKind,
		Steps:            a.cfg.Steps,
		DatasetTag:       a.cfg.DatasetTag,
		StepCommand:      a.cfg.StepCommand,
		RecombineCommand: a.cfg.RecombineCommand,
		GeocodeCommand:   a.cfg.GeocodeCommand,
		PlotCommand:      a.cfg.PlotCommand,
		IngestCommand:    a.cfg.IngestCommand,
		DatabasePath:     a.cfg.DatabasePath,
		ReportDir:        a.cfg.ReportDir,
		Debounce:         a.cfg.Debounce,
	}

	opts = append([]gliderbatch.Option{gliderbatch.WithLogger(a.logger)}, opts...)
	r, err := gliderbatch.New(libCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}
	return r, nil
}

// runAll processes every mission once, or keeps watching with --watch.
// Mission failures are reported but do not change the exit status.
func (a *app) runAll(ctx context.Context) error {
	if a.cfg.Watch {
		return a.watch(ctx)
	}

	r, err := a.newRunner()
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := r.Run(ctx)
	if err != nil {
		return err
	}
	printReport(os.Stdout, report)
	return nil
}

func (a *app) watch(ctx context.Context) error {
	r, err := a.newRunner(
		gliderbatch.WithEventHandler(&missionPrinter{out: os.Stdout}),
		missionwatcher.WithDefaultMissionWatcher(),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("start watch: %w", err)
	}

	// Poll for a crash of the processing goroutine
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("received signal, stopping...")
			if err := r.Stop(); err != nil {
				return fmt.Errorf("stop watch: %w", err)
			}
			return nil
		case <-ticker.C:
			if r.Status() == gliderbatch.StateCrashed {
				return errors.New("watch crashed, see log for details")
			}
		}
	}
}
