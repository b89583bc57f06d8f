package gliderbatch

import (
	"fmt"
	"time"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/planner"
)

// Config holds the configuration of a Runner.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// RootInputDir holds the raw files, as <root>/SEA<glider>/M<mission>.
	RootInputDir string
	// RootOutputDir holds the products; missions are discovered here.
	RootOutputDir string

	// BatchSize is the maximum number of file pairs per batch.
	BatchSize int
	// TailThreshold is the smallest final batch kept on its own; smaller
	// tails are merged into the previous batch.
	TailThreshold int
	// DataKind selects the payload files: "raw" or "sub".
	DataKind string
	// Steps are the stage switches passed to the processing step.
	Steps []int
	// DatasetTag is passed to the geocode stage.
	DatasetTag string

	// Commands of the external collaborators, with {placeholder} tokens.
	// An empty post-processing command disables that stage.
	StepCommand      []string
	RecombineCommand []string
	GeocodeCommand   []string
	PlotCommand      []string
	IngestCommand    []string

	// DatabasePath enables SQLite ingestion and run history when set.
	DatabasePath string
	// ReportDir receives last_run.json when set.
	ReportDir string

	// Debounce is how long watch mode waits for a mission to go quiet.
	Debounce time.Duration
}

// DefaultConfig returns a Config with default values. RootInputDir and
// RootOutputDir must still be set.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = planner.DefaultBatchSize
	}
	if c.TailThreshold == 0 {
		c.TailThreshold = planner.DefaultTailThreshold
	}
	if c.DataKind == "" {
		c.DataKind = string(domain.DataKindRaw)
	}
	if len(c.Steps) == 0 {
		c.Steps = domain.DefaultStepOptions().Steps
	}
	if c.DatasetTag == "" {
		c.DatasetTag = "complete_mission"
	}
	if c.Debounce == 0 {
		c.Debounce = 30 * time.Second
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.RootInputDir == "" {
		return fmt.Errorf("%w: RootInputDir is required", domain.ErrInvalidConfig)
	}
	if c.RootOutputDir == "" {
		return fmt.Errorf("%w: RootOutputDir is required", domain.ErrInvalidConfig)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: BatchSize must be at least 1", domain.ErrInvalidConfig)
	}
	if c.TailThreshold < 1 {
		return fmt.Errorf("%w: TailThreshold must be at least 1", domain.ErrInvalidConfig)
	}
	if _, err := domain.ParseDataKind(c.DataKind); err != nil {
		return err
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%w: Debounce must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}
