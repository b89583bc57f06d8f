package gliderbatch

import (
	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/internal/ports"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// Re-exported types so embedders do not need the internal packages.
type (
	// MissionKey identifies a mission by glider and mission number.
	MissionKey = domain.MissionKey

	// BatchPlan is the partition of one mission into batches.
	BatchPlan = domain.BatchPlan

	// Batch is one contiguous slice of a mission.
	Batch = domain.Batch

	// StepRequest is one invocation of the processing step.
	StepRequest = domain.StepRequest

	// MissionResult is the outcome of one mission.
	MissionResult = domain.MissionResult

	// MissionStatus is the outcome class of a mission.
	MissionStatus = domain.MissionStatus

	// RunReport aggregates one run over all missions.
	RunReport = domain.RunReport

	// SkippedCandidate is a directory that did not name a mission.
	SkippedCandidate = domain.SkippedCandidate

	// ProcessingStep runs the external processing over one directory.
	ProcessingStep = ports.ProcessingStep

	// ProcessingStepFunc adapts a function to ProcessingStep.
	ProcessingStepFunc = ports.ProcessingStepFunc

	// MissionPostProcessor runs the stages after batch processing.
	MissionPostProcessor = ports.MissionPostProcessor

	// ReportRepository persists run reports.
	ReportRepository = ports.ReportRepository

	// Logger is the interface for structured logging.
	Logger = log.Logger
)

// Mission statuses.
const (
	MissionSucceeded = domain.MissionSucceeded
	MissionFailed    = domain.MissionFailed
	MissionSkipped   = domain.MissionSkipped
)
