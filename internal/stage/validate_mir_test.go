package stage

import (
	"testing"
)

// linearFunc returns a two-block function:
//
//	b0: v1 = const; br b1
//	b1: v2 = bin v1, v1; ret v2
func linearFunc() Func {
	return Func{
		Name:  "f",
		Entry: 0,
		Blocks: []Block{
			{ID: 0, Instrs: []Instr{
				{Op: OpConst, Dst: 1},
				{Op: OpBr, Targets: []BlockID{1}},
			}},
			{ID: 1, Instrs: []Instr{
				{Op: OpBin, Dst: 2, Args: []ValueID{1, 1}},
				{Op: OpRet, Args: []ValueID{2}},
			}},
		},
	}
}

func mirTree(fns ...Func) *Tree {
	t := NewTree(KindMIR, "unit.ov")
	t.Funcs = fns
	return t
}

func TestMIRValidatorAcceptsWellFormed(t *testing.T) {
	v := New(nil)
	if viol := v.Validate(mirTree(linearFunc())); viol != nil {
		t.Fatalf("unexpected violation: %v", viol)
	}
}

func TestMIRValidatorRejectsZeroTerminators(t *testing.T) {
	v := New(nil)
	fn := linearFunc()
	fn.Blocks[1].Instrs = fn.Blocks[1].Instrs[:1] // strip the ret
	viol := v.Validate(mirTree(fn))
	if viol == nil || viol.Rule != RuleMIRNoTerminator {
		t.Errorf("got %v, want %s", viol, RuleMIRNoTerminator)
	}
}

func TestMIRValidatorRejectsTwoTerminators(t *testing.T) {
	v := New(nil)
	fn := linearFunc()
	fn.Blocks[1].Instrs = append(fn.Blocks[1].Instrs, Instr{Op: OpRet})
	viol := v.Validate(mirTree(fn))
	if viol == nil || viol.Rule != RuleMIRManyTerms {
		t.Errorf("got %v, want %s", viol, RuleMIRManyTerms)
	}
}

func TestMIRValidatorRejectsFallthrough(t *testing.T) {
	v := New(nil)
	fn := linearFunc()
	// terminator in the middle, instruction after it
	fn.Blocks[0].Instrs = []Instr{
		{Op: OpBr, Targets: []BlockID{1}},
		{Op: OpConst, Dst: 1},
	}
	viol := v.Validate(mirTree(fn))
	if viol == nil || viol.Rule != RuleMIRTermNotLast {
		t.Errorf("got %v, want %s", viol, RuleMIRTermNotLast)
	}
}

func TestMIRValidatorRejectsResidualHighLevelConstruct(t *testing.T) {
	v := New(nil)
	tree := mirTree(linearFunc())
	tree.AddNode(Node{Kind: NodeMatch})
	viol := v.Validate(tree)
	if viol == nil || viol.Rule != RuleMIRHighLevel {
		t.Errorf("got %v, want %s", viol, RuleMIRHighLevel)
	}
}

func TestMIRValidatorRejectsBranchToMissingBlock(t *testing.T) {
	v := New(nil)
	fn := linearFunc()
	fn.Blocks[0].Instrs[1].Targets = []BlockID{7}
	viol := v.Validate(mirTree(fn))
	if viol == nil || viol.Rule != RuleMIRBadTarget {
		t.Errorf("got %v, want %s", viol, RuleMIRBadTarget)
	}
}

func TestMIRValidatorRejectsUseBeforeDef(t *testing.T) {
	v := New(nil)
	fn := Func{
		Name:  "g",
		Entry: 0,
		Blocks: []Block{
			{ID: 0, Instrs: []Instr{
				{Op: OpBin, Dst: 2, Args: []ValueID{1, 1}}, // v1 never defined
				{Op: OpRet, Args: []ValueID{2}},
			}},
		},
	}
	viol := v.Validate(mirTree(fn))
	if viol == nil || viol.Rule != RuleMIRUseBeforeDef {
		t.Errorf("got %v, want %s", viol, RuleMIRUseBeforeDef)
	}
}

func TestMIRValidatorAcceptsParamUse(t *testing.T) {
	v := New(nil)
	fn := Func{
		Name:   "h",
		Params: []ValueID{1},
		Entry:  0,
		Blocks: []Block{
			{ID: 0, Instrs: []Instr{
				{Op: OpBin, Dst: 2, Args: []ValueID{1, 1}},
				{Op: OpRet, Args: []ValueID{2}},
			}},
		},
	}
	if viol := v.Validate(mirTree(fn)); viol != nil {
		t.Fatalf("unexpected violation: %v", viol)
	}
}

// Diamond where the left arm defines v5 but the right arm does not: a use
// of v5 in the join block must fail, because one path reaches it undefined.
func TestMIRValidatorRejectsPartialPathDefinition(t *testing.T) {
	v := New(nil)
	fn := Func{
		Name:   "diamond",
		Params: []ValueID{1},
		Entry:  0,
		Blocks: []Block{
			{ID: 0, Instrs: []Instr{
				{Op: OpCondBr, Args: []ValueID{1}, Targets: []BlockID{1, 2}},
			}},
			{ID: 1, Instrs: []Instr{
				{Op: OpConst, Dst: 5},
				{Op: OpBr, Targets: []BlockID{3}},
			}},
			{ID: 2, Instrs: []Instr{
				{Op: OpBr, Targets: []BlockID{3}},
			}},
			{ID: 3, Instrs: []Instr{
				{Op: OpRet, Args: []ValueID{5}},
			}},
		},
	}
	viol := v.Validate(mirTree(fn))
	if viol == nil || viol.Rule != RuleMIRUseBeforeDef {
		t.Errorf("got %v, want %s", viol, RuleMIRUseBeforeDef)
	}
}

// Diamond with no parameters, so the pass-through arm carries a genuinely
// empty definition set. The join use of v5 must still fail: the empty arm
// counts as a predecessor and the intersection must drop v5.
func TestMIRValidatorRejectsPartialDefinitionViaEmptyArm(t *testing.T) {
	v := New(nil)
	fn := Func{
		Name:  "diamond",
		Entry: 0,
		Blocks: []Block{
			{ID: 0, Instrs: []Instr{
				{Op: OpCondBr, Args: []ValueID{NoValue}, Targets: []BlockID{1, 2}},
			}},
			{ID: 1, Instrs: []Instr{
				{Op: OpConst, Dst: 5},
				{Op: OpBr, Targets: []BlockID{3}},
			}},
			{ID: 2, Instrs: []Instr{
				{Op: OpBr, Targets: []BlockID{3}},
			}},
			{ID: 3, Instrs: []Instr{
				{Op: OpRet, Args: []ValueID{5}},
			}},
		},
	}
	viol := v.Validate(mirTree(fn))
	if viol == nil || viol.Rule != RuleMIRUseBeforeDef {
		t.Errorf("got %v, want %s", viol, RuleMIRUseBeforeDef)
	}
}

// Same diamond, but both arms define v5: the join use is fine.
func TestMIRValidatorAcceptsAllPathDefinition(t *testing.T) {
	v := New(nil)
	fn := Func{
		Name:   "diamond",
		Params: []ValueID{1},
		Entry:  0,
		Blocks: []Block{
			{ID: 0, Instrs: []Instr{
				{Op: OpCondBr, Args: []ValueID{1}, Targets: []BlockID{1, 2}},
			}},
			{ID: 1, Instrs: []Instr{
				{Op: OpConst, Dst: 5},
				{Op: OpBr, Targets: []BlockID{3}},
			}},
			{ID: 2, Instrs: []Instr{
				{Op: OpConst, Dst: 5},
				{Op: OpBr, Targets: []BlockID{3}},
			}},
			{ID: 3, Instrs: []Instr{
				{Op: OpRet, Args: []ValueID{5}},
			}},
		},
	}
	if viol := v.Validate(mirTree(fn)); viol != nil {
		t.Fatalf("unexpected violation: %v", viol)
	}
}
