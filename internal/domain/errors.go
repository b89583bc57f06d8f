package domain

import (
	"errors"
	"fmt"
)

// Sentinels for each failure class. Typed errors below match them via Is.
var (
	// ErrDiscovery is returned when a directory does not name a mission.
	ErrDiscovery = errors.New("gliderbatch: mission discovery failed")

	// ErrInputMismatch is returned when a mission has no paired input files.
	ErrInputMismatch = errors.New("gliderbatch: no paired input files")

	// ErrStagingIO is returned when a staging directory or copy fails.
	ErrStagingIO = errors.New("gliderbatch: staging failed")

	// ErrProcessingStep is returned when the external processing step fails.
	ErrProcessingStep = errors.New("gliderbatch: processing step failed")

	// ErrPostProcess is returned when a downstream collaborator fails.
	ErrPostProcess = errors.New("gliderbatch: post-processing failed")

	// ErrInvalidPlan is returned when a batch plan cannot be built.
	ErrInvalidPlan = errors.New("gliderbatch: invalid batch plan")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("gliderbatch: invalid configuration")

	// ErrAlreadyRunning is returned when starting a watch service that is running.
	ErrAlreadyRunning = errors.New("gliderbatch: already running")

	// ErrNotRunning is returned when stopping a watch service that is not running.
	ErrNotRunning = errors.New("gliderbatch: not running")

	// ErrShutdownTimeout is returned when the service does not stop in time.
	ErrShutdownTimeout = errors.New("gliderbatch: shutdown timed out")
)

// DiscoveryError reports a candidate directory that does not parse to a
// MissionKey. It is a warning: the candidate is skipped.
type DiscoveryError struct {
	Path   string
	Reason error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("not a mission directory %s: %v", e.Path, e.Reason)
}

func (e *DiscoveryError) Unwrap() error        { return e.Reason }
func (e *DiscoveryError) Is(target error) bool { return target == ErrDiscovery }

// InputMismatchError reports a mission whose input directory yields no
// usable gli/pld pairs.
type InputMismatchError struct {
	Mission MissionKey
	Dir     string
	Gli     int
	Pld     int
}

func (e *InputMismatchError) Error() string {
	return fmt.Sprintf("input dir %s does not contain paired gli and pld files (gli=%d pld=%d)",
		e.Dir, e.Gli, e.Pld)
}

func (e *InputMismatchError) Is(target error) bool { return target == ErrInputMismatch }

// StagingIOError reports a failed directory creation or file copy.
type StagingIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *StagingIOError) Error() string {
	return fmt.Sprintf("staging %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StagingIOError) Unwrap() error        { return e.Err }
func (e *StagingIOError) Is(target error) bool { return target == ErrStagingIO }

// ProcessingStepError reports a failed invocation of the external step.
// Batch is -1 for a direct run.
type ProcessingStepError struct {
	Mission MissionKey
	Batch   int
	Err     error
}

func (e *ProcessingStepError) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("processing %s: %v", e.Mission, e.Err)
	}
	return fmt.Sprintf("processing %s batch %d: %v", e.Mission, e.Batch, e.Err)
}

func (e *ProcessingStepError) Unwrap() error        { return e.Err }
func (e *ProcessingStepError) Is(target error) bool { return target == ErrProcessingStep }

// PostProcessError reports a failed downstream stage (recombine, geocode,
// plot or ingest).
type PostProcessError struct {
	Mission MissionKey
	Stage   Stage
	Err     error
}

func (e *PostProcessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Mission, e.Err)
}

func (e *PostProcessError) Unwrap() error        { return e.Err }
func (e *PostProcessError) Is(target error) bool { return target == ErrPostProcess }
