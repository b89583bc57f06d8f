package gliderbatch

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/bft-labs/gliderbatch/internal/adapters/command"
	"github.com/bft-labs/gliderbatch/internal/adapters/fs"
	"github.com/bft-labs/gliderbatch/internal/adapters/sqlite"
	"github.com/bft-labs/gliderbatch/internal/app"
	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/ports"
)

// Runner processes glider missions. Use New() to create an instance.
type Runner struct {
	config       Config
	opts         options
	orchestrator *app.Orchestrator
	lifecycle    *app.Lifecycle
	step         ports.ProcessingStep
	reports      []ports.ReportRepository
	history      *sqlite.ReportStore
	ingester     *sqlite.Ingester
	db           *sql.DB
	logger       ports.Logger
	emitter      *eventEmitterWrapper
	plugins      []Plugin
	started      []Plugin

	// runMu serializes mission processing across Run, RunMission and the
	// watch loop.
	runMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	pending map[MissionKey]struct{}
	notify  chan struct{}
}

// New creates a new Runner with the given configuration.
// Returns an error if configuration is invalid or the database cannot be
// opened. Call Close to release the database.
func New(cfg Config, opts ...Option) (*Runner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	r := &Runner{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, emitter),
		logger:    logger,
		emitter:   emitter,
		plugins:   o.plugins,
		pending:   make(map[MissionKey]struct{}),
		notify:    make(chan struct{}, 1),
	}

	r.step = o.step
	if r.step == nil && len(cfg.StepCommand) > 0 {
		r.step = command.NewStep(cfg.StepCommand, logger)
	}

	var ingester command.Ingester
	if cfg.DatabasePath != "" {
		db, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		r.db = db
		r.ingester = sqlite.NewIngester(db, logger)
		ingester = r.ingester
		r.history = sqlite.NewReportStore(db)
	}

	post := o.post
	if post == nil {
		post = command.NewPostProcessor(command.PostProcessorConfig{
			Recombine: cfg.RecombineCommand,
			Geocode:   cfg.GeocodeCommand,
			Plot:      cfg.PlotCommand,
			Ingest:    cfg.IngestCommand,
		}, ingester, logger)
	}

	if cfg.ReportDir != "" {
		r.reports = append(r.reports, fs.NewReportFileRepository(cfg.ReportDir))
	}
	if r.history != nil {
		r.reports = append(r.reports, r.history)
	}
	r.reports = append(r.reports, o.reports...)

	executor := app.NewExecutor(app.ExecutorConfig{
		Kind:    domain.DataKind(cfg.DataKind),
		Options: domain.StepOptions{Steps: cfg.Steps},
	}, fs.NewStagingManager(logger), r.step, logger, emitter)

	r.orchestrator = app.NewOrchestrator(app.OrchestratorConfig{
		RootInputDir:  cfg.RootInputDir,
		RootOutputDir: cfg.RootOutputDir,
		BatchSize:     cfg.BatchSize,
		TailThreshold: cfg.TailThreshold,
		Kind:          domain.DataKind(cfg.DataKind),
		DatasetTag:    cfg.DatasetTag,
	}, executor, post, logger, r.reports...)

	return r, nil
}

// Run processes every mission under RootOutputDir and returns the report.
// Mission failures are in the report; the error is non-nil only when no
// processing step is configured or the output root cannot be read.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	if err := r.checkStep(); err != nil {
		return RunReport{}, err
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	report, err := r.orchestrator.Run(ctx)
	for _, m := range report.Missions {
		r.emitter.onMissionDone(m)
	}
	return report, err
}

// RunMission processes a single mission.
func (r *Runner) RunMission(ctx context.Context, key MissionKey) (MissionResult, error) {
	if err := r.checkStep(); err != nil {
		return MissionResult{}, err
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	res := r.orchestrator.RunMission(ctx, key)
	r.emitter.onMissionDone(res)
	return res, nil
}

// PlanResult is the batch plan of one mission, or the reason it has none.
type PlanResult struct {
	Mission MissionKey
	Plan    BatchPlan
	Err     error
}

// Plan computes the batch plan of every mission without staging or running
// anything.
func (r *Runner) Plan(ctx context.Context) ([]PlanResult, []SkippedCandidate, error) {
	keys, derrs, err := r.orchestrator.Discover()
	if err != nil {
		return nil, nil, err
	}

	skipped := make([]SkippedCandidate, 0, len(derrs))
	for _, d := range derrs {
		skipped = append(skipped, SkippedCandidate{Path: d.Path, Reason: d.Reason.Error()})
	}

	results := make([]PlanResult, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return results, skipped, err
		}
		plan, err := r.orchestrator.PlanMission(key)
		results = append(results, PlanResult{Mission: key, Plan: plan, Err: err})
	}
	return results, skipped, nil
}

// LastReport returns the most recent saved run report, or an empty report
// when nothing has been saved.
func (r *Runner) LastReport(ctx context.Context) (RunReport, error) {
	for _, repo := range r.reports {
		report, err := repo.Load(ctx)
		if err != nil {
			return RunReport{}, err
		}
		if !report.IsEmpty() {
			return report, nil
		}
	}
	return RunReport{}, nil
}

// RunSummary is one past run recorded in the database.
type RunSummary = sqlite.RunSummary

// History returns up to limit past runs, newest first. It requires
// Config.DatabasePath.
func (r *Runner) History(ctx context.Context, limit int) ([]RunSummary, error) {
	if r.history == nil {
		return nil, fmt.Errorf("%w: run history needs a database", domain.ErrInvalidConfig)
	}
	return r.history.History(ctx, limit)
}

// MissionRecord is the ingestion record of a mission.
type MissionRecord = sqlite.MissionRecord

// ErrNotIngested is returned by Ingested for a mission the database has no
// record of.
var ErrNotIngested = sqlite.ErrNotIngested

// IngestedMission is a mission's ingestion record and its product files.
type IngestedMission struct {
	MissionRecord
	Files []string
}

// Ingested returns what the database holds for a mission. It requires
// Config.DatabasePath.
func (r *Runner) Ingested(ctx context.Context, key MissionKey) (IngestedMission, error) {
	if r.ingester == nil {
		return IngestedMission{}, fmt.Errorf("%w: ingestion records need a database", domain.ErrInvalidConfig)
	}
	rec, err := r.ingester.Mission(ctx, key)
	if err != nil {
		return IngestedMission{}, err
	}
	files, err := r.ingester.Files(ctx, key)
	if err != nil {
		return IngestedMission{}, err
	}
	return IngestedMission{MissionRecord: *rec, Files: files}, nil
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) checkStep() error {
	if r.step == nil {
		return fmt.Errorf("%w: no processing step configured", domain.ErrInvalidConfig)
	}
	return nil
}
