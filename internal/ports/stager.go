package ports

import (
	"context"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// Stager materializes one batch: it ensures the staging directories exist and
// makes the input staging directory hold exactly the batch's slice of files.
// Implementations must never modify or remove the source files.
type Stager interface {
	Stage(ctx context.Context, batch domain.Batch, files domain.AlignedFileSet) error

	// Prune removes the staging directories <dir>_sub_<i> with i >= keep
	// next to inputDir and outputDir, left over from earlier plans with more
	// batches.
	Prune(ctx context.Context, inputDir, outputDir string, keep int) error
}
