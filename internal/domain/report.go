package domain

import "time"

// Stage names a step of the per-mission pipeline.
type Stage string

const (
	StageDiscover  Stage = "discover"
	StageMatch     Stage = "match"
	StagePlan      Stage = "plan"
	StageExecute   Stage = "execute"
	StageRecombine Stage = "recombine"
	StageGeocode   Stage = "geocode"
	StagePlot      Stage = "plot"
	StageIngest    Stage = "ingest"
)

// MissionStatus is the outcome of one mission in a run.
type MissionStatus string

const (
	MissionSucceeded MissionStatus = "succeeded"
	MissionFailed    MissionStatus = "failed"
	MissionSkipped   MissionStatus = "skipped"
)

// MissionResult records what happened to one mission.
type MissionResult struct {
	Mission    MissionKey    `json:"mission"`
	Status     MissionStatus `json:"status"`
	Pairs      int           `json:"pairs"`
	Batches    int           `json:"batches"`
	Direct     bool          `json:"direct"`
	FailedAt   Stage         `json:"failed_at,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`

	// Err is the underlying error; it is not serialized.
	Err error `json:"-"`
}

// Duration returns how long the mission took.
func (r MissionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Fail marks the result failed at stage with err.
func (r *MissionResult) Fail(stage Stage, err error) {
	r.Status = MissionFailed
	r.FailedAt = stage
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// SkippedCandidate is a directory discovery could not turn into a mission.
type SkippedCandidate struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RunReport aggregates one orchestration run.
type RunReport struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Skipped    []SkippedCandidate `json:"skipped,omitempty"`
	Missions   []MissionResult    `json:"missions"`
}

// IsEmpty returns true if the report has not been initialized.
func (r RunReport) IsEmpty() bool {
	return r.RunID == ""
}

// Counts returns the number of missions per status.
func (r RunReport) Counts() (succeeded, failed, skipped int) {
	for _, m := range r.Missions {
		switch m.Status {
		case MissionSucceeded:
			succeeded++
		case MissionFailed:
			failed++
		case MissionSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}
