package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ovie/internal/buildpipeline"
	"ovie/internal/ore"
	"ovie/internal/stage"
)

func brokenASTViolation(t *testing.T) *stage.Violation {
	t.Helper()
	tree := stage.NewTree(stage.KindAST, "unit.ov")
	tree.Root = tree.AddNode(stage.Node{Kind: stage.NodeModule, Symbol: 9})
	violation := stage.New(nil).Validate(tree)
	if violation == nil {
		t.Fatal("expected the symbol-tagged AST to be rejected")
	}
	return violation
}

func TestExitCodeContract(t *testing.T) {
	violation := brokenASTViolation(t)
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"generic failure", errors.New("boom"), 1},
		{"source errors", &exitError{code: exitSource, err: errors.New("validation reported errors")}, 1},
		{"violation", &buildpipeline.ViolationError{Unit: "unit.ov", Violation: violation}, 2},
		{"bare violation", violation, 2},
		{"environment", &ore.Error{Kind: ore.ErrSubpathMissing, Root: "/opt/ovie", Subpath: "std"}, 3},
		{"wrapped environment", fmt.Errorf("resolving: %w", &ore.Error{Kind: ore.ErrRootNotFound}), 3},
		{"strict bootstrap", &exitError{code: exitSource, err: errors.New("bootstrap is not reproducible")}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeFor(tc.err); got != tc.want {
				t.Fatalf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestBugReportForViolation(t *testing.T) {
	violation := brokenASTViolation(t)
	report, ok := bugReportFor(&buildpipeline.ViolationError{Unit: "unit.ov", Violation: violation})
	if !ok {
		t.Fatal("a violation error should produce a bug report")
	}
	if !strings.Contains(report, "bug") {
		t.Fatalf("bug report should tell the user to file a bug:\n%s", report)
	}
	if _, ok := bugReportFor(errors.New("plain")); ok {
		t.Fatal("plain errors must not masquerade as compiler bugs")
	}
}

func TestCollectUnitsSortsDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		tree := stage.NewTree(stage.KindAST, name)
		tree.Root = tree.AddNode(stage.Node{Kind: stage.NodeModule})
		if err := stage.Dump(filepath.Join(dir, name+stage.DumpExt), tree); err != nil {
			t.Fatalf("dump %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	units, err := collectUnits([]string{dir})
	if err != nil {
		t.Fatalf("collectUnits: %v", err)
	}
	got := make([]string, len(units))
	for i, u := range units {
		got[i] = u.Name
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCollectUnitsRejectsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("nope"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := collectUnits([]string{path}); err == nil {
		t.Fatal("a non-dump file argument should be rejected")
	}
}

func TestReadUIMode(t *testing.T) {
	for _, value := range []string{"", "auto", "on", "off", " ON "} {
		if _, err := readUIMode(value); err != nil {
			t.Fatalf("readUIMode(%q) failed: %v", value, err)
		}
	}
	if _, err := readUIMode("fancy"); err == nil {
		t.Fatal("unknown ui mode should be rejected")
	}
}
