// Package planner partitions a mission's aligned input pairs into batches.
package planner

import (
	"fmt"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// Defaults for batch partitioning.
const (
	DefaultBatchSize     = 100
	DefaultTailThreshold = 3
)

// Ranges splits [0, n) into consecutive ranges of batchSize pairs.
//
// When the last range would hold fewer than tailThreshold pairs it is folded
// into its predecessor. Folding repeats until the tail is large enough or a
// single range remains, so the result never ends in a degenerate batch. A
// tailThreshold below 1 is treated as 1 (no merging).
func Ranges(n, batchSize, tailThreshold int) ([]domain.Range, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: nothing to plan (n=%d)", domain.ErrInvalidPlan, n)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrInvalidPlan, batchSize)
	}
	if tailThreshold < 1 {
		tailThreshold = 1
	}

	if n <= batchSize {
		return []domain.Range{{Start: 0, End: n}}, nil
	}

	ranges := make([]domain.Range, 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		ranges = append(ranges, domain.Range{Start: start, End: min(start+batchSize, n)})
	}

	for len(ranges) > 1 && ranges[len(ranges)-1].Size() < tailThreshold {
		last := len(ranges) - 1
		ranges[last-1].End = ranges[last].End
		ranges = ranges[:last]
	}

	if err := checkPartition(ranges, n); err != nil {
		return nil, err
	}
	return ranges, nil
}

// checkPartition verifies that ranges are contiguous, ordered, non-empty and
// cover exactly [0, n).
func checkPartition(ranges []domain.Range, n int) error {
	next := 0
	for i, r := range ranges {
		if r.Start != next {
			return fmt.Errorf("%w: range %d %s does not start at %d", domain.ErrInvalidPlan, i, r, next)
		}
		if r.End <= r.Start {
			return fmt.Errorf("%w: range %d %s is empty", domain.ErrInvalidPlan, i, r)
		}
		next = r.End
	}
	if next != n {
		return fmt.Errorf("%w: ranges end at %d, want %d", domain.ErrInvalidPlan, next, n)
	}
	return nil
}

// Planner builds batch plans for missions with fixed partitioning settings.
type Planner struct {
	BatchSize     int
	TailThreshold int
}

// New returns a Planner. Non-positive values fall back to the defaults.
func New(batchSize, tailThreshold int) *Planner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if tailThreshold <= 0 {
		tailThreshold = DefaultTailThreshold
	}
	return &Planner{BatchSize: batchSize, TailThreshold: tailThreshold}
}

// Plan partitions n pairs of mission key. inputDir and outputDir are the
// mission's top-level directories; a plan that needs staging names its
// batches <dir>_sub_<i>. When n fits in a single batch the plan is Direct
// and its only batch runs on inputDir and outputDir themselves.
func (p *Planner) Plan(key domain.MissionKey, n int, inputDir, outputDir string) (domain.BatchPlan, error) {
	ranges, err := Ranges(n, p.BatchSize, p.TailThreshold)
	if err != nil {
		return domain.BatchPlan{}, err
	}

	plan := domain.BatchPlan{
		Mission:   key,
		Total:     n,
		InputDir:  inputDir,
		OutputDir: outputDir,
		Direct:    n <= p.BatchSize,
		Batches:   make([]domain.Batch, len(ranges)),
	}
	for i, r := range ranges {
		b := domain.Batch{Index: i, Range: r}
		if plan.Direct {
			b.InputDir, b.OutputDir = inputDir, outputDir
		} else {
			b.InputDir = domain.StagingDir(inputDir, i)
			b.OutputDir = domain.StagingDir(outputDir, i)
		}
		plan.Batches[i] = b
	}
	return plan, nil
}
