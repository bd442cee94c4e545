package buildpipeline

import (
	"time"

	"ovie/internal/stage"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageLoad is the stage-tree loading phase.
	StageLoad Stage = "load"
	// StageValidateAST validates trees tagged as parser output.
	StageValidateAST Stage = "validate-ast"
	// StageValidateHIR validates trees after name and type resolution.
	StageValidateHIR Stage = "validate-hir"
	// StageValidateMIR validates control-flow normalized trees.
	StageValidateMIR Stage = "validate-mir"
	// StageValidateBackend validates final artifact metadata.
	StageValidateBackend Stage = "validate-backend"
)

// stageFor maps a tree tag to the pipeline phase that validates it.
func stageFor(kind stage.Kind) Stage {
	switch kind {
	case stage.KindAST:
		return StageValidateAST
	case stage.KindHIR:
		return StageValidateHIR
	case stage.KindMIR:
		return StageValidateMIR
	case stage.KindBackend:
		return StageValidateBackend
	default:
		return Stage("validate-" + kind.String())
	}
}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the unit is currently being checked.
	StatusWorking Status = "working"
	// StatusDone indicates the unit passed the stage.
	StatusDone Status = "done"
	// StatusError indicates the stage failed for the unit.
	StatusError Status = "error"
)

// Event reports progress for a unit (or for the overall pipeline when
// Unit is empty).
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Add accumulates a duration for the given stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

// merge folds other's durations into t.
func (t *Timings) merge(other Timings) {
	for stage, dur := range other.stages {
		t.Add(stage, dur)
	}
}
