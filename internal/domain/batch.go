package domain

import "fmt"

// Range is a half-open interval [Start, End) over a mission's aligned pairs.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Size returns the number of pairs in the range.
func (r Range) Size() int {
	return r.End - r.Start
}

// String formats the range as "[start,end)".
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Batch is one contiguous slice of a mission's inputs and the directories it
// is processed in.
type Batch struct {
	Index     int
	Range     Range
	InputDir  string
	OutputDir string
}

// BatchPlan is the ordered partition of one mission. It is computed fresh on
// every run and never persisted.
type BatchPlan struct {
	Mission MissionKey
	Total   int

	// InputDir and OutputDir are the mission's top-level directories.
	InputDir  string
	OutputDir string

	// Direct is set when the whole mission fits in one batch; the step then
	// runs on the mission directories themselves with no staging copy.
	Direct bool

	Batches []Batch
}

// Len returns the number of batches.
func (p BatchPlan) Len() int {
	return len(p.Batches)
}

// StepOptions are forwarded verbatim to the external processing step.
type StepOptions struct {
	// Steps are the stage switches of the processing step, e.g. [1 1 1 1].
	Steps []int
}

// DefaultStepOptions enables every stage.
func DefaultStepOptions() StepOptions {
	return StepOptions{Steps: []int{1, 1, 1, 1}}
}

// StepRequest is one invocation of the external processing step.
type StepRequest struct {
	Mission   MissionKey
	Kind      DataKind
	InputDir  string
	OutputDir string
	Options   StepOptions

	// Batch is the batch index, or -1 for a direct run.
	Batch int
}
