package app

import (
	"context"
	"time"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/ports"
)

// ExecutorConfig contains the settings forwarded to every step invocation.
type ExecutorConfig struct {
	Kind    domain.DataKind
	Options domain.StepOptions
}

// BatchObserver is notified around each processing step invocation.
type BatchObserver interface {
	OnBatchStart(plan domain.BatchPlan, batch domain.Batch)
	OnBatchDone(plan domain.BatchPlan, batch domain.Batch, err error, duration time.Duration)
}

// Executor runs a mission's batch plan: staging followed by the processing
// step, one batch at a time.
type Executor struct {
	config   ExecutorConfig
	stager   ports.Stager
	step     ports.ProcessingStep
	logger   ports.Logger
	observer BatchObserver
}

// NewExecutor creates a new executor with the given dependencies.
// observer may be nil.
func NewExecutor(
	config ExecutorConfig,
	stager ports.Stager,
	step ports.ProcessingStep,
	logger ports.Logger,
	observer BatchObserver,
) *Executor {
	return &Executor{
		config:   config,
		stager:   stager,
		step:     step,
		logger:   logger,
		observer: observer,
	}
}

// Execute runs plan over files.
//
// Staging directories numbered at or beyond the plan's batch count (all of
// them for a direct plan) are removed first. A direct plan invokes the step
// once on the mission directories with no staging. Otherwise batches run in index order, each staged before it is
// processed, and the first failure stops the plan: batches after it are
// neither staged nor processed. Staging failures are returned as they are
// (*domain.StagingIOError); step failures are wrapped in
// *domain.ProcessingStepError.
func (e *Executor) Execute(ctx context.Context, plan domain.BatchPlan, files domain.AlignedFileSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Staging directories beyond this plan belong to an earlier run.
	keep := plan.Len()
	if plan.Direct {
		keep = 0
	}
	if err := e.stager.Prune(ctx, plan.InputDir, plan.OutputDir, keep); err != nil {
		e.logger.Error("pruning staging directories failed",
			ports.String("mission", plan.Mission.String()),
			ports.Err(err),
		)
		return err
	}

	if plan.Direct {
		return e.runBatch(ctx, plan, plan.Batches[0], -1)
	}

	for _, b := range plan.Batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.logger.Info("staging batch",
			ports.String("mission", plan.Mission.String()),
			ports.Int("batch", b.Index),
			ports.String("range", b.Range.String()),
			ports.String("input", b.InputDir),
		)
		if err := e.stager.Stage(ctx, b, files); err != nil {
			e.logger.Error("staging failed",
				ports.String("mission", plan.Mission.String()),
				ports.Int("batch", b.Index),
				ports.Err(err),
			)
			return err
		}

		if err := e.runBatch(ctx, plan, b, b.Index); err != nil {
			return err
		}
	}
	return nil
}

// runBatch invokes the step for b. index is -1 for a direct run.
func (e *Executor) runBatch(ctx context.Context, plan domain.BatchPlan, b domain.Batch, index int) error {
	req := domain.StepRequest{
		Mission:   plan.Mission,
		Kind:      e.config.Kind,
		InputDir:  b.InputDir,
		OutputDir: b.OutputDir,
		Options:   e.config.Options,
		Batch:     index,
	}

	if e.observer != nil {
		e.observer.OnBatchStart(plan, b)
	}

	start := time.Now()
	err := e.step.Process(ctx, req)
	duration := time.Since(start)

	if e.observer != nil {
		e.observer.OnBatchDone(plan, b, err, duration)
	}

	if err != nil {
		e.logger.Error("processing step failed",
			ports.String("mission", plan.Mission.String()),
			ports.Int("batch", index),
			ports.Err(err),
		)
		return &domain.ProcessingStepError{Mission: plan.Mission, Batch: index, Err: err}
	}

	e.logger.Info("processed batch",
		ports.String("mission", plan.Mission.String()),
		ports.Int("batch", index),
		ports.Int("pairs", b.Range.Size()),
		ports.Duration("duration", duration),
	)
	return nil
}
