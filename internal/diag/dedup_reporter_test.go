package diag

import (
	"testing"

	"ovie/internal/source"
)

func TestDedupReporterSuppressesRepeats(t *testing.T) {
	bag := NewBag(16)
	rep := NewDedupReporter(BagReporter{Bag: bag})

	span := source.Span{File: 1, Start: 10, End: 14}
	for i := 0; i < 3; i++ {
		ReportError(rep, NameUnresolved, span, "unresolved name `x`").Emit()
	}
	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic after dedup, got %d", bag.Len())
	}

	// same code, different span: not a duplicate
	ReportError(rep, NameUnresolved, source.Span{File: 1, Start: 20, End: 21}, "unresolved name `x`").Emit()
	// same span, different message: not a duplicate
	ReportError(rep, NameUnresolved, span, "unresolved name `y`").Emit()
	if bag.Len() != 3 {
		t.Fatalf("expected 3 distinct diagnostics, got %d", bag.Len())
	}
}
