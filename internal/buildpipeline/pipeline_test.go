package buildpipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ovie/internal/diag"
	"ovie/internal/source"
	"ovie/internal/stage"
)

func astTree(unit string) *stage.Tree {
	tree := stage.NewTree(stage.KindAST, unit)
	tree.Root = tree.AddNode(stage.Node{Kind: stage.NodeModule})
	return tree
}

func hirTree(unit string) *stage.Tree {
	tree := stage.NewTree(stage.KindHIR, unit)
	decl := tree.AddNode(stage.Node{Kind: stage.NodeFuncDecl, Symbol: 7, Type: 1})
	tree.Root = decl
	return tree
}

// identityLowerers lowers by retagging a fresh well-formed tree, enough
// to drive the pipeline through every stage boundary.
func toHIR(_ context.Context, tree *stage.Tree, _ diag.Reporter) (*stage.Tree, error) {
	return hirTree(tree.Unit), nil
}

func TestRunValidatesAndLowers(t *testing.T) {
	var events []Event
	sinkCh := make(chan Event, 64)
	req := &Request{
		Units: []UnitSource{
			{Name: "alpha", Tree: astTree("alpha")},
			{Name: "beta", Tree: astTree("beta")},
		},
		Lowerers: map[stage.Kind]Lowerer{
			stage.KindAST: LowererFunc(toHIR),
		},
		Progress: ChannelSink{Ch: sinkCh},
	}

	result, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	close(sinkCh)
	for evt := range sinkCh {
		events = append(events, evt)
	}

	if len(result.Units) != 2 {
		t.Fatalf("expected 2 unit results, got %d", len(result.Units))
	}
	for _, unit := range result.Units {
		if unit.Final != stage.KindHIR {
			t.Fatalf("unit %q should have lowered to HIR, stopped at %s", unit.Unit, unit.Final)
		}
	}
	if result.Bag.HasErrors() {
		t.Fatalf("clean run should have no errors: %s", result.Bag)
	}

	var sawQueued, sawASTDone, sawHIRDone bool
	for _, evt := range events {
		switch {
		case evt.Status == StatusQueued:
			sawQueued = true
		case evt.Stage == StageValidateAST && evt.Status == StatusDone:
			sawASTDone = true
		case evt.Stage == StageValidateHIR && evt.Status == StatusDone:
			sawHIRDone = true
		}
	}
	if !sawQueued || !sawASTDone || !sawHIRDone {
		t.Fatalf("missing progress events: queued=%v ast=%v hir=%v", sawQueued, sawASTDone, sawHIRDone)
	}
	if !result.Timings.Has(StageValidateAST) {
		t.Fatal("timings should record the AST validation stage")
	}
}

func TestRunStopsAtUnloweredStage(t *testing.T) {
	req := &Request{
		Units: []UnitSource{{Name: "alpha", Tree: astTree("alpha")}},
	}
	result, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Units[0].Final != stage.KindAST {
		t.Fatalf("without lowerers the unit should stop at AST, got %s", result.Units[0].Final)
	}
}

func TestRunSurfacesViolation(t *testing.T) {
	// An AST node carrying a resolved symbol is stage-inappropriate
	// metadata and must abort the run, not show up as a diagnostic.
	bad := stage.NewTree(stage.KindAST, "broken")
	bad.Root = bad.AddNode(stage.Node{Kind: stage.NodeModule, Symbol: 3})

	_, err := Run(context.Background(), &Request{
		Units: []UnitSource{{Name: "broken", Tree: bad}},
	})
	var verr *ViolationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ViolationError, got %v", err)
	}
	if verr.Unit != "broken" {
		t.Fatalf("violation should name the unit, got %q", verr.Unit)
	}
	var violation *stage.Violation
	if !errors.As(err, &violation) {
		t.Fatal("the underlying Violation should be reachable via errors.As")
	}
}

func TestRunEnforcesLoweringTagContract(t *testing.T) {
	// A lowering step that returns a tree still tagged with its input
	// stage is a broken step; the exit validation must catch it.
	skipTag := LowererFunc(func(_ context.Context, tree *stage.Tree, _ diag.Reporter) (*stage.Tree, error) {
		return astTree(tree.Unit), nil
	})
	_, err := Run(context.Background(), &Request{
		Units:    []UnitSource{{Name: "alpha", Tree: astTree("alpha")}},
		Lowerers: map[stage.Kind]Lowerer{stage.KindAST: skipTag},
	})
	var verr *ViolationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ViolationError, got %v", err)
	}
	if verr.Violation.Rule != stage.RuleTagMismatch {
		t.Fatalf("expected tag mismatch, got %s", verr.Violation.Rule)
	}
}

func TestRunAccumulatesSourceErrorsWithoutCancel(t *testing.T) {
	// Source findings from a lowering step stop that unit but let the
	// rest of the run finish.
	failing := LowererFunc(func(_ context.Context, tree *stage.Tree, rep diag.Reporter) (*stage.Tree, error) {
		if tree.Unit == "bad" {
			diag.ReportError(rep, diag.NameUnresolved, source.Span{}, "unresolved name `frobnicate`").Emit()
			return tree, nil
		}
		return hirTree(tree.Unit), nil
	})
	result, err := Run(context.Background(), &Request{
		Units: []UnitSource{
			{Name: "bad", Tree: astTree("bad")},
			{Name: "good", Tree: astTree("good")},
		},
		Lowerers:    map[stage.Kind]Lowerer{stage.KindAST: failing},
		Parallelism: 1,
	})
	if err != nil {
		t.Fatalf("source errors must not fail the run: %v", err)
	}
	if !result.Bag.HasErrors() {
		t.Fatal("merged bag should carry the source error")
	}
	var finals = map[string]stage.Kind{}
	for _, unit := range result.Units {
		finals[unit.Unit] = unit.Final
	}
	if finals["bad"] != stage.KindAST {
		t.Fatalf("failing unit should stop at AST, got %s", finals["bad"])
	}
	if finals["good"] != stage.KindHIR {
		t.Fatalf("clean unit should still lower to HIR, got %s", finals["good"])
	}
}

func TestRunLoadsDumpsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alpha"+stage.DumpExt)
	if err := stage.Dump(path, astTree("alpha")); err != nil {
		t.Fatalf("dump: %v", err)
	}

	result, err := Run(context.Background(), &Request{
		Units: []UnitSource{{Name: "alpha", Path: path}},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Units[0].Final != stage.KindAST {
		t.Fatalf("loaded unit should validate at AST, got %s", result.Units[0].Final)
	}
}

func TestRunReportsLoadFailure(t *testing.T) {
	_, err := Run(context.Background(), &Request{
		Units: []UnitSource{{Name: "ghost", Path: filepath.Join(t.TempDir(), "ghost.otree")}},
	})
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected a LoadError, got %v", err)
	}
	if lerr.Unit != "ghost" {
		t.Fatalf("load error should name the unit, got %q", lerr.Unit)
	}
	var verr *ViolationError
	if errors.As(err, &verr) {
		t.Fatal("an unreadable dump is an input problem, not a violation")
	}
}
