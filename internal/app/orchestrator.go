package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bft-labs/gliderbatch/internal/discovery"
	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/planner"
	"github.com/bft-labs/gliderbatch/internal/ports"
)

// DefaultDatasetTag is passed to the geocoding stage when none is set.
const DefaultDatasetTag = "complete_mission"

// OrchestratorConfig contains configuration for mission orchestration.
type OrchestratorConfig struct {
	RootInputDir  string
	RootOutputDir string
	BatchSize     int
	TailThreshold int
	Kind          domain.DataKind
	DatasetTag    string
}

// Orchestrator drives every mission through listing, pairing, planning,
// batch execution and post-processing.
//
// Missions are processed strictly one after another. Callers must not run
// the same mission from two goroutines at once: the staging directories of
// a mission are shared between runs.
type Orchestrator struct {
	config   OrchestratorConfig
	planner  *planner.Planner
	executor *Executor
	post     ports.MissionPostProcessor
	reports  []ports.ReportRepository
	logger   ports.Logger

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates a new orchestrator. Each report repository receives
// the report at the end of Run.
func NewOrchestrator(
	config OrchestratorConfig,
	executor *Executor,
	post ports.MissionPostProcessor,
	logger ports.Logger,
	reports ...ports.ReportRepository,
) *Orchestrator {
	if config.DatasetTag == "" {
		config.DatasetTag = DefaultDatasetTag
	}
	return &Orchestrator{
		config:   config,
		planner:  planner.New(config.BatchSize, config.TailThreshold),
		executor: executor,
		post:     post,
		reports:  reports,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
}

// Run processes every mission found under the output root, in discovery
// order. A failing mission is recorded and the run moves on. The returned
// error is non-nil only when the output root itself cannot be read.
//
// When ctx is canceled the mission in progress stops at its next step and
// the missions not yet started are recorded as skipped.
func (o *Orchestrator) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     o.newID(),
		StartedAt: o.now(),
	}
	o.logger.Info("run started",
		ports.String("run_id", report.RunID),
		ports.String("input_root", o.config.RootInputDir),
		ports.String("output_root", o.config.RootOutputDir),
	)

	cands, err := discovery.DiscoverMissions(o.config.RootOutputDir)
	if err != nil {
		return report, fmt.Errorf("discover missions: %w", err)
	}

	keys, skipped := discovery.Split(cands)
	for _, derr := range skipped {
		o.logger.Warn("skipping directory", ports.String("path", derr.Path), ports.Err(derr.Reason))
		report.Skipped = append(report.Skipped, domain.SkippedCandidate{
			Path:   derr.Path,
			Reason: derr.Reason.Error(),
		})
	}
	o.logger.Info("missions discovered", ports.Int("missions", len(keys)), ports.Int("skipped", len(skipped)))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			report.Missions = append(report.Missions, domain.MissionResult{
				Mission: key,
				Status:  domain.MissionSkipped,
				Error:   err.Error(),
			})
			continue
		}
		report.Missions = append(report.Missions, o.RunMission(ctx, key))
	}

	report.FinishedAt = o.now()
	ok, failed, skippedMissions := report.Counts()
	o.logger.Info("run finished",
		ports.String("run_id", report.RunID),
		ports.Int("succeeded", ok),
		ports.Int("failed", failed),
		ports.Int("skipped", skippedMissions),
		ports.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)

	o.saveReport(report)
	return report, nil
}

// saveReport persists report to every repository. Failures are logged only.
func (o *Orchestrator) saveReport(report domain.RunReport) {
	// The run context may already be canceled; the report is still written.
	ctx := context.Background()
	for _, repo := range o.reports {
		if err := repo.Save(ctx, report); err != nil {
			o.logger.Error("failed to save run report", ports.Err(err))
		}
	}
}

// RunMission runs the full pipeline for one mission and reports the outcome.
// The first failing stage ends the mission; its error is on the result.
func (o *Orchestrator) RunMission(ctx context.Context, key domain.MissionKey) domain.MissionResult {
	res := domain.MissionResult{Mission: key, StartedAt: o.now()}

	o.logger.Info("mission started", ports.String("mission", key.String()))

	plan, files, stage, err := o.prepare(key)
	if err != nil {
		return o.fail(res, stage, err)
	}
	res.Pairs = plan.Total
	res.Batches = plan.Len()
	res.Direct = plan.Direct

	if err := o.executor.Execute(ctx, plan, files); err != nil {
		return o.fail(res, domain.StageExecute, err)
	}

	outputDir := key.Dir(o.config.RootOutputDir)
	post := []struct {
		stage domain.Stage
		run   func() error
	}{
		{domain.StageRecombine, func() error { return o.post.Recombine(ctx, key) }},
		{domain.StageGeocode, func() error { return o.post.Geocode(ctx, key, o.config.DatasetTag) }},
		{domain.StagePlot, func() error { return o.post.Plot(ctx, key) }},
		{domain.StageIngest, func() error { return o.post.Ingest(ctx, key, outputDir) }},
	}
	for _, p := range post {
		if err := ctx.Err(); err != nil {
			return o.fail(res, p.stage, err)
		}
		if err := p.run(); err != nil {
			return o.fail(res, p.stage, &domain.PostProcessError{Mission: key, Stage: p.stage, Err: err})
		}
	}

	res.Status = domain.MissionSucceeded
	res.FinishedAt = o.now()
	o.logger.Info("mission complete",
		ports.String("mission", key.String()),
		ports.Int("pairs", res.Pairs),
		ports.Int("batches", res.Batches),
		ports.Duration("duration", res.Duration()),
	)
	return res
}

// PlanMission lists, pairs and plans a mission without staging or running
// anything.
func (o *Orchestrator) PlanMission(key domain.MissionKey) (domain.BatchPlan, error) {
	plan, _, _, err := o.prepare(key)
	return plan, err
}

// Discover returns the missions under the output root and the directories
// that were skipped.
func (o *Orchestrator) Discover() ([]domain.MissionKey, []*domain.DiscoveryError, error) {
	cands, err := discovery.DiscoverMissions(o.config.RootOutputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("discover missions: %w", err)
	}
	keys, skipped := discovery.Split(cands)
	return keys, skipped, nil
}

// prepare lists and pairs the mission's inputs and plans their batches. On
// failure it also returns the stage that failed.
func (o *Orchestrator) prepare(key domain.MissionKey) (domain.BatchPlan, domain.AlignedFileSet, domain.Stage, error) {
	inputDir := key.Dir(o.config.RootInputDir)
	outputDir := key.Dir(o.config.RootOutputDir)

	gli, pld, err := discovery.ListMissionFiles(inputDir, o.config.Kind)
	if err != nil {
		return domain.BatchPlan{}, domain.AlignedFileSet{}, domain.StageDiscover, err
	}

	files, err := discovery.MatchPairs(key, inputDir, gli, pld, o.logger)
	if err != nil {
		return domain.BatchPlan{}, domain.AlignedFileSet{}, domain.StageMatch, err
	}

	plan, err := o.planner.Plan(key, files.Len(), inputDir, outputDir)
	if err != nil {
		return domain.BatchPlan{}, domain.AlignedFileSet{}, domain.StagePlan, err
	}

	o.logger.Info("mission planned",
		ports.String("mission", key.String()),
		ports.Int("pairs", plan.Total),
		ports.Int("batches", plan.Len()),
		ports.Bool("direct", plan.Direct),
	)
	return plan, files, "", nil
}

func (o *Orchestrator) fail(res domain.MissionResult, stage domain.Stage, err error) domain.MissionResult {
	res.Fail(stage, err)
	res.FinishedAt = o.now()

	fields := []ports.Field{
		ports.String("mission", res.Mission.String()),
		ports.String("stage", string(stage)),
		ports.Err(err),
	}
	if errors.Is(err, context.Canceled) {
		o.logger.Warn("mission interrupted", fields...)
	} else {
		o.logger.Error("mission failed", fields...)
	}
	return res
}
