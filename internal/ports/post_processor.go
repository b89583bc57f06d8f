package ports

import (
	"context"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// MissionPostProcessor is the set of downstream collaborators run once per
// mission after every batch has been processed, in declaration order.
type MissionPostProcessor interface {
	// Recombine merges the ordered per-batch outputs into one mission result.
	// It relies on the staging layout <dir>_sub_<i> created by the core.
	Recombine(ctx context.Context, key domain.MissionKey) error

	// Geocode updates the mission products for datasetTag.
	Geocode(ctx context.Context, key domain.MissionKey, datasetTag string) error

	// Plot renders the mission plots.
	Plot(ctx context.Context, key domain.MissionKey) error

	// Ingest loads the mission products under outputDir into the database.
	Ingest(ctx context.Context, key domain.MissionKey, outputDir string) error
}
