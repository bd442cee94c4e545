// Package buildpipeline orchestrates staged validation across
// compilation units. Every tree is validated at its own stage before any
// lowering step consumes it, and every lowering step's output is
// validated before the next step runs. There are no retries: a failed
// unit is reported and the pipeline moves on or stops, it never re-runs
// a stage.
package buildpipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"ovie/internal/diag"
	"ovie/internal/observ"
	"ovie/internal/stage"
)

// Lowerer transforms a validated tree into the next stage's tree. The
// implementation lives outside this subsystem (parser, resolver, code
// generator); the pipeline only enforces the contract around it: the
// input was validated, and the output must carry exactly the next stage
// tag and validate in turn. Source-level findings go to rep; a non-nil
// error means the step itself broke and aborts the run.
type Lowerer interface {
	Lower(ctx context.Context, tree *stage.Tree, rep diag.Reporter) (*stage.Tree, error)
}

// LowererFunc adapts a function to the Lowerer interface.
type LowererFunc func(ctx context.Context, tree *stage.Tree, rep diag.Reporter) (*stage.Tree, error)

func (f LowererFunc) Lower(ctx context.Context, tree *stage.Tree, rep diag.Reporter) (*stage.Tree, error) {
	return f(ctx, tree, rep)
}

// UnitSource names one compilation unit and where its tree comes from.
// Tree takes precedence when set; otherwise Path is loaded as a stage
// dump.
type UnitSource struct {
	Name string
	Path string
	Tree *stage.Tree
}

// Request configures one pipeline run.
type Request struct {
	Units   []UnitSource
	Targets stage.TargetCatalog
	// Lowerers is keyed by the stage a step consumes. Lowering proceeds
	// while a step is registered for the current stage; a unit whose
	// stage has no registered step stops there, validated.
	Lowerers map[stage.Kind]Lowerer
	// MaxDiagnostics caps each unit's diagnostic bag.
	MaxDiagnostics int
	Progress       ProgressSink
	Timer          *observ.Timer
	// Parallelism bounds concurrent units; GOMAXPROCS when zero or
	// negative.
	Parallelism int
}

// UnitResult is the outcome for one unit.
type UnitResult struct {
	Unit  string
	Final stage.Kind
	Bag   *diag.Bag
}

// Result aggregates a full run. Bag holds every unit's diagnostics
// merged in unit order and sorted; identical inputs always produce the
// same Bag.
type Result struct {
	Units   []UnitResult
	Bag     *diag.Bag
	Timings Timings
}

// ViolationError names the unit whose tree failed validation.
type ViolationError struct {
	Unit      string
	Violation *stage.Violation
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("unit %q: %s", e.Unit, e.Violation.Error())
}

func (e *ViolationError) Unwrap() error { return e.Violation }

// LoadError reports a unit whose stage dump could not be read. This is
// an input problem, not a compiler bug.
type LoadError struct {
	Unit    string
	Path    string
	Wrapped error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unit %q: load %s: %v", e.Unit, e.Path, e.Wrapped)
}

func (e *LoadError) Unwrap() error { return e.Wrapped }

// Run validates every unit, lowering as far as registered steps allow.
// Units run in parallel; each worker exclusively owns its unit's tree,
// so validators and lowerers never need locking. The first violation
// cancels the whole group and surfaces as a *ViolationError; source
// diagnostics never cancel, they accumulate in the result bag.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing pipeline request")
	}

	maxDiags := req.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 256
	}
	validator := stage.New(req.Targets)

	if req.Progress != nil {
		for _, unit := range req.Units {
			req.Progress.OnEvent(Event{Unit: unit.Name, Stage: StageLoad, Status: StatusQueued})
		}
	}

	results := make([]UnitResult, len(req.Units))
	timings := make([]Timings, len(req.Units))

	g, gctx := errgroup.WithContext(ctx)
	limit := req.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, unit := range req.Units {
		i, unit := i, unit
		g.Go(func() error {
			res, err := runUnit(gctx, validator, req, unit, &timings[i])
			results[i] = res
			return err
		})
	}
	err := g.Wait()

	// Merge in unit order regardless of completion order, then sort.
	merged := diag.NewBag(maxDiags * max(1, len(req.Units)))
	for i := range results {
		merged.Merge(results[i].Bag)
		result.Timings.merge(timings[i])
	}
	merged.Sort()
	result.Units = results
	result.Bag = merged
	return result, err
}

func runUnit(ctx context.Context, validator *stage.Validator, req *Request, unit UnitSource, timings *Timings) (UnitResult, error) {
	maxDiags := req.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 256
	}
	res := UnitResult{Unit: unit.Name, Bag: diag.NewBag(maxDiags)}
	// Lowering steps tend to re-report one finding per use site;
	// collapse exact repeats at the unit boundary.
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	tree := unit.Tree
	if tree == nil {
		emit(req.Progress, unit.Name, StageLoad, StatusWorking, nil, 0)
		start := time.Now()
		loaded, err := stage.Load(unit.Path)
		elapsed := time.Since(start)
		timings.Add(StageLoad, elapsed)
		if err != nil {
			lerr := &LoadError{Unit: unit.Name, Path: unit.Path, Wrapped: err}
			emit(req.Progress, unit.Name, StageLoad, StatusError, lerr, elapsed)
			return res, lerr
		}
		emit(req.Progress, unit.Name, StageLoad, StatusDone, nil, elapsed)
		tree = loaded
	}

	// Entry validation: the tree is checked at its own tag before any
	// step consumes it.
	if verr := runStage(req, unit.Name, stageFor(tree.Stage), timings, func() *stage.Violation {
		return validator.Validate(tree)
	}); verr != nil {
		return res, verr
	}
	res.Final = tree.Stage

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		lowerer, ok := req.Lowerers[tree.Stage]
		if !ok {
			return res, nil
		}
		next, ok := tree.Stage.Next()
		if !ok {
			return res, nil
		}

		lowered, err := lowerer.Lower(ctx, tree, rep)
		if err != nil {
			emit(req.Progress, unit.Name, stageFor(next), StatusError, err, 0)
			return res, fmt.Errorf("unit %q: lowering %s: %w", unit.Name, tree.Stage, err)
		}
		if res.Bag.HasErrors() {
			// Source findings stop this unit without failing the run.
			emit(req.Progress, unit.Name, stageFor(next), StatusError, nil, 0)
			return res, nil
		}

		// Exit validation doubles as tag enforcement: a step that hands
		// back anything but the next stage is a violation in the step,
		// not in the input.
		if verr := runStage(req, unit.Name, stageFor(next), timings, func() *stage.Violation {
			return validator.ValidateAs(next, lowered)
		}); verr != nil {
			return res, verr
		}
		tree = lowered
		res.Final = tree.Stage
	}
}

// runStage times and reports one validation phase for a unit.
func runStage(req *Request, unit string, st Stage, timings *Timings, check func() *stage.Violation) error {
	emit(req.Progress, unit, st, StatusWorking, nil, 0)
	var idx int
	if req.Timer != nil {
		idx = req.Timer.Begin(string(st))
	}
	start := time.Now()
	violation := check()
	elapsed := time.Since(start)
	timings.Add(st, elapsed)
	if req.Timer != nil {
		req.Timer.End(idx, unit)
	}
	if violation != nil {
		verr := &ViolationError{Unit: unit, Violation: violation}
		emit(req.Progress, unit, st, StatusError, verr, elapsed)
		return verr
	}
	emit(req.Progress, unit, st, StatusDone, nil, elapsed)
	return nil
}

func emit(sink ProgressSink, unit string, st Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Unit: unit, Stage: st, Status: status, Err: err, Elapsed: elapsed})
}
