package stage

import (
	"testing"
)

// wellFormedAST builds a minimal grammar-only tree: module { func f(x) { x } }
func wellFormedAST() *Tree {
	t := NewTree(KindAST, "unit.ov")
	ident := t.AddNode(Node{Kind: NodeIdent})
	body := t.AddNode(Node{Kind: NodeBlock, Children: []NodeID{ident}})
	param := t.AddNode(Node{Kind: NodeParamDecl})
	fn := t.AddNode(Node{Kind: NodeFuncDecl, Children: []NodeID{param, body}})
	t.Root = t.AddNode(Node{Kind: NodeModule, Children: []NodeID{fn}})
	return t
}

// wellFormedHIR builds the same shape with resolved symbols and concrete types.
func wellFormedHIR() *Tree {
	t := NewTree(KindHIR, "unit.ov")
	ident := t.AddNode(Node{Kind: NodeIdent, Symbol: 2, Type: 10})
	body := t.AddNode(Node{Kind: NodeBlock, Children: []NodeID{ident}})
	param := t.AddNode(Node{Kind: NodeParamDecl, Symbol: 2})
	fn := t.AddNode(Node{Kind: NodeFuncDecl, Symbol: 1, Children: []NodeID{param, body}})
	t.Root = t.AddNode(Node{Kind: NodeModule, Children: []NodeID{fn}})
	return t
}

func TestASTValidatorAcceptsWellFormed(t *testing.T) {
	v := New(nil)
	if viol := v.Validate(wellFormedAST()); viol != nil {
		t.Fatalf("unexpected violation: %v", viol)
	}
}

func TestASTValidatorRejectsStageInappropriateMetadata(t *testing.T) {
	v := New(nil)

	symTagged := wellFormedAST()
	symTagged.Nodes[1].Symbol = 7
	viol := v.Validate(symTagged)
	if viol == nil || viol.Rule != RuleASTSymbolTagged {
		t.Errorf("symbol-tagged AST: got %v, want %s", viol, RuleASTSymbolTagged)
	}

	typeTagged := wellFormedAST()
	typeTagged.Nodes[1].Type = 3
	viol = v.Validate(typeTagged)
	if viol == nil || viol.Rule != RuleASTTypeTagged {
		t.Errorf("type-tagged AST: got %v, want %s", viol, RuleASTTypeTagged)
	}

	lowered := wellFormedAST()
	lowered.Funcs = []Func{{Name: "f"}}
	viol = v.Validate(lowered)
	if viol == nil || viol.Rule != RuleASTLoweredForm {
		t.Errorf("lowered AST: got %v, want %s", viol, RuleASTLoweredForm)
	}
}

func TestASTValidatorRejectsDanglingChild(t *testing.T) {
	v := New(nil)
	tree := wellFormedAST()
	tree.Nodes[2].Children = append(tree.Nodes[2].Children, NodeID(99))
	viol := v.Validate(tree)
	if viol == nil || viol.Rule != RuleNodeOutOfRange {
		t.Errorf("got %v, want %s", viol, RuleNodeOutOfRange)
	}
}

func TestHIRValidatorAcceptsResolvedTyped(t *testing.T) {
	v := New(nil)
	if viol := v.Validate(wellFormedHIR()); viol != nil {
		t.Fatalf("unexpected violation: %v", viol)
	}
}

func TestHIRValidatorRejectsUnresolvedReference(t *testing.T) {
	v := New(nil)
	tree := wellFormedHIR()
	tree.Nodes[1].Symbol = NoSymbol
	viol := v.Validate(tree)
	if viol == nil || viol.Rule != RuleHIRUnresolved {
		t.Errorf("got %v, want %s", viol, RuleHIRUnresolved)
	}
}

func TestHIRValidatorRejectsDanglingSymbol(t *testing.T) {
	v := New(nil)
	tree := wellFormedHIR()
	tree.Nodes[1].Symbol = 99 // no declaration with symbol 99
	viol := v.Validate(tree)
	if viol == nil || viol.Rule != RuleHIRDanglingRef {
		t.Errorf("got %v, want %s", viol, RuleHIRDanglingRef)
	}
}

func TestHIRValidatorRejectsPlaceholderType(t *testing.T) {
	v := New(nil)

	noType := wellFormedHIR()
	noType.Nodes[1].Type = NoType
	viol := v.Validate(noType)
	if viol == nil || viol.Rule != RuleHIRNoType {
		t.Errorf("no type: got %v, want %s", viol, RuleHIRNoType)
	}

	placeholder := wellFormedHIR()
	placeholder.Nodes[1].Type = TypeUnknown
	viol = v.Validate(placeholder)
	if viol == nil || viol.Rule != RuleHIRNoType {
		t.Errorf("placeholder type: got %v, want %s", viol, RuleHIRNoType)
	}
}

func TestValidateAsRejectsTagMismatch(t *testing.T) {
	v := New(nil)
	tree := wellFormedAST()
	viol := v.ValidateAs(KindHIR, tree)
	if viol == nil || viol.Rule != RuleTagMismatch {
		t.Fatalf("got %v, want %s", viol, RuleTagMismatch)
	}
	if viol.Stage != KindHIR {
		t.Errorf("violation stage = %s, want HIR", viol.Stage)
	}
}

func TestValidateAsAcceptsMatchingTag(t *testing.T) {
	v := New(nil)
	if viol := v.ValidateAs(KindAST, wellFormedAST()); viol != nil {
		t.Fatalf("unexpected violation: %v", viol)
	}
}

func TestKindNext(t *testing.T) {
	if next, ok := KindAST.Next(); !ok || next != KindHIR {
		t.Errorf("AST.Next() = %s, %v", next, ok)
	}
	if next, ok := KindMIR.Next(); !ok || next != KindBackend {
		t.Errorf("MIR.Next() = %s, %v", next, ok)
	}
	if _, ok := KindBackend.Next(); ok {
		t.Error("Backend.Next() should report terminal")
	}
}
