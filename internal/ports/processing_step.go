package ports

import (
	"context"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// ProcessingStep performs the actual decode/transform of one directory of
// paired input files into the output directory.
type ProcessingStep interface {
	// Process runs the step once. A non-nil error means the step failed and
	// the output directory must be treated as incomplete.
	Process(ctx context.Context, req domain.StepRequest) error
}

// ProcessingStepFunc adapts a function to ProcessingStep.
type ProcessingStepFunc func(ctx context.Context, req domain.StepRequest) error

// Process calls f.
func (f ProcessingStepFunc) Process(ctx context.Context, req domain.StepRequest) error {
	return f(ctx, req)
}
