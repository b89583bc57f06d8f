package gliderbatch

import (
	"time"

	"github.com/bft-labs/gliderbatch/internal/app"
	"github.com/bft-labs/gliderbatch/internal/domain"
)

// State is the lifecycle state of a Runner in watch mode.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateIdle
	StateProcessing
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// BatchEvent reports the start or end of one processing step invocation.
type BatchEvent struct {
	Mission MissionKey
	// Batch is the batch index, or -1 for a direct run.
	Batch    int
	Batches  int
	Pairs    int
	Duration time.Duration
	Err      error
}

// EventHandler receives runner events.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnBatchStart(event BatchEvent)
	OnBatchDone(event BatchEvent)
	OnMissionDone(result MissionResult)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnBatchStart(BatchEvent)        {}
func (BaseEventHandler) OnBatchDone(BatchEvent)         {}
func (BaseEventHandler) OnMissionDone(MissionResult)    {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnBatchStart(plan domain.BatchPlan, b domain.Batch) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatchStart(batchEvent(plan, b, nil, 0))
}

func (e *eventEmitterWrapper) OnBatchDone(plan domain.BatchPlan, b domain.Batch, err error, d time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatchDone(batchEvent(plan, b, err, d))
}

func (e *eventEmitterWrapper) onMissionDone(res MissionResult) {
	if e.handler == nil {
		return
	}
	e.handler.OnMissionDone(res)
}

func batchEvent(plan domain.BatchPlan, b domain.Batch, err error, d time.Duration) BatchEvent {
	index := b.Index
	if plan.Direct {
		index = -1
	}
	return BatchEvent{
		Mission:  plan.Mission,
		Batch:    index,
		Batches:  plan.Len(),
		Pairs:    b.Range.Size(),
		Duration: d,
		Err:      err,
	}
}
