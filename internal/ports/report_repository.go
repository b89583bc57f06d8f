package ports

import (
	"context"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// ReportRepository persists the outcome of orchestration runs.
type ReportRepository interface {
	// Load retrieves the last saved report.
	// Returns an empty report and nil error if none exists.
	Load(ctx context.Context) (domain.RunReport, error)

	// Save persists report. Implementations write atomically.
	Save(ctx context.Context, report domain.RunReport) error
}
