package diagfmt

import (
	"strings"
	"testing"

	"ovie/internal/diag"
	"ovie/internal/source"
)

func TestPrettyBasicFormat(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.ov", []byte("let x = nope;\n"))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.NameUnresolved, source.Span{File: id, Start: 8, End: 12}, "unresolved identifier 'nope'"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	out := sb.String()

	if !strings.Contains(out, "main.ov:1:9: ERROR E_NAME_001: unresolved identifier 'nope'") {
		t.Errorf("missing header line:\n%s", out)
	}
	if !strings.Contains(out, "let x = nope;") {
		t.Errorf("missing context line:\n%s", out)
	}
	if !strings.Contains(out, "^~~~") {
		t.Errorf("missing caret underline:\n%s", out)
	}
}

func TestPrettyHidesUnverifiedFixes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.ov", []byte("bad\n"))

	d := diag.NewError(diag.TypeMismatch, source.Span{File: id, Start: 0, End: 3}, "type mismatch").
		WithFix("unverified guess", "worse", false).
		WithFix("verified rewrite", "good", true)
	bag := diag.NewBag(10)
	bag.Add(d)

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{ShowFixes: true, PathMode: PathModeBasename})
	out := sb.String()

	if strings.Contains(out, "unverified guess") {
		t.Errorf("unverified fix rendered:\n%s", out)
	}
	if !strings.Contains(out, "verified rewrite") {
		t.Errorf("verified fix missing:\n%s", out)
	}
}

func TestJSONOutput(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("unit.ov", []byte("a\nbb\n"))

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.FlowUnreachable, source.Span{File: id, Start: 2, End: 4}, "unreachable").
		WithExplanation("this code follows a return"))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename})
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "E_FLOW_001" {
		t.Errorf("Code = %q", d.Code)
	}
	if d.Severity != "WARNING" {
		t.Errorf("Severity = %q", d.Severity)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 1 {
		t.Errorf("Location = %d:%d, want 2:1", d.Location.StartLine, d.Location.StartCol)
	}
	if d.Explanation == "" {
		t.Error("Explanation dropped")
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("unit.ov", []byte("aaaa\n"))

	bag := diag.NewBag(10)
	for i := 0; i < 5; i++ {
		bag.Add(diag.NewError(diag.TypeMismatch, source.Span{File: id, Start: uint32(i), End: uint32(i) + 1}, "e"))
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 3})
	if out.Count != 3 {
		t.Errorf("Count = %d, want 3", out.Count)
	}
	if bag.Len() != 5 {
		t.Errorf("Bag mutated: Len = %d", bag.Len())
	}
}
