package command

import (
	"context"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// Ingester loads mission products into a database.
type Ingester interface {
	Ingest(ctx context.Context, key domain.MissionKey, outputDir string) error
}

// PostProcessorConfig holds the argv templates of the downstream
// collaborators. An empty template disables that stage.
type PostProcessorConfig struct {
	Recombine []string
	Geocode   []string
	Plot      []string
	Ingest    []string
}

// PostProcessor implements ports.MissionPostProcessor with external
// commands. Ingestion goes to the Ingester when one is set, otherwise to the
// Ingest command.
type PostProcessor struct {
	cfg      PostProcessorConfig
	ingester Ingester
	runner   *Runner
	logger   log.Logger
}

// NewPostProcessor creates a PostProcessor. ingester may be nil.
func NewPostProcessor(cfg PostProcessorConfig, ingester Ingester, logger log.Logger) *PostProcessor {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &PostProcessor{
		cfg:      cfg,
		ingester: ingester,
		runner:   NewRunner(logger),
		logger:   logger,
	}
}

// Recombine runs the recombine command.
func (p *PostProcessor) Recombine(ctx context.Context, key domain.MissionKey) error {
	return p.run(ctx, domain.StageRecombine, p.cfg.Recombine, missionVars(key))
}

// Geocode runs the geocode command with {dataset} set to datasetTag.
func (p *PostProcessor) Geocode(ctx context.Context, key domain.MissionKey, datasetTag string) error {
	vars := missionVars(key)
	vars["dataset"] = datasetTag
	return p.run(ctx, domain.StageGeocode, p.cfg.Geocode, vars)
}

// Plot runs the plot command.
func (p *PostProcessor) Plot(ctx context.Context, key domain.MissionKey) error {
	return p.run(ctx, domain.StagePlot, p.cfg.Plot, missionVars(key))
}

// Ingest hands the mission output directory to the database.
func (p *PostProcessor) Ingest(ctx context.Context, key domain.MissionKey, outputDir string) error {
	if p.ingester != nil {
		return p.ingester.Ingest(ctx, key, outputDir)
	}
	vars := missionVars(key)
	vars["dir"] = outputDir
	return p.run(ctx, domain.StageIngest, p.cfg.Ingest, vars)
}

func (p *PostProcessor) run(ctx context.Context, stage domain.Stage, argv []string, vars Vars) error {
	if len(argv) == 0 {
		p.logger.Debug("stage not configured, skipping", log.String("stage", string(stage)))
		return nil
	}
	return p.runner.Run(ctx, Expand(argv, vars))
}
