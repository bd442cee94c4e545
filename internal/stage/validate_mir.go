package stage

// validateMIR verifies the explicit control-flow form: every basic block
// terminates exactly once (in the last position, no fallthrough), the tree
// carries no residual high-level constructs, and every value is defined
// before use along every path that reaches the use.
func (v *Validator) validateMIR(tree *Tree) *Violation {
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		if n.Kind.IsHighLevel() {
			return violation(KindMIR, RuleMIRHighLevel,
				"%s node #%d survived lowering", n.Kind, n.ID)
		}
	}

	for fi := range tree.Funcs {
		fn := &tree.Funcs[fi]
		if viol := checkFuncForm(fn); viol != nil {
			return viol
		}
		if viol := checkDefBeforeUse(fn); viol != nil {
			return viol
		}
	}
	return nil
}

func checkFuncForm(fn *Func) *Violation {
	if int(fn.Entry) >= len(fn.Blocks) {
		return violation(KindMIR, RuleMIRBadTarget,
			"func %q entry block #%d out of range (%d blocks)", fn.Name, fn.Entry, len(fn.Blocks))
	}
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		switch terms := b.Terminators(); {
		case terms == 0:
			return violation(KindMIR, RuleMIRNoTerminator,
				"func %q block #%d has no terminator", fn.Name, b.ID)
		case terms > 1:
			return violation(KindMIR, RuleMIRManyTerms,
				"func %q block #%d has %d terminators", fn.Name, b.ID, terms)
		}
		last := len(b.Instrs) - 1
		if !b.Instrs[last].Op.IsTerminator() {
			return violation(KindMIR, RuleMIRTermNotLast,
				"func %q block #%d: %s terminator is not the last instruction", fn.Name, b.ID, terminatorOf(b))
		}
		for _, target := range b.Instrs[last].Targets {
			if int(target) >= len(fn.Blocks) {
				return violation(KindMIR, RuleMIRBadTarget,
					"func %q block #%d branches to missing block #%d", fn.Name, b.ID, target)
			}
		}
	}
	return nil
}

func terminatorOf(b *Block) Op {
	for i := range b.Instrs {
		if b.Instrs[i].Op.IsTerminator() {
			return b.Instrs[i].Op
		}
	}
	return OpInvalid
}

// checkDefBeforeUse runs a forward must-define dataflow: the set of values
// definitely defined at a block's entry is the intersection over its
// predecessors' exit sets, seeded with the function parameters at entry.
// A use outside the running set violates the SSA-like invariant.
func checkDefBeforeUse(fn *Func) *Violation {
	n := len(fn.Blocks)
	if n == 0 {
		return nil
	}

	preds := make([][]BlockID, n)
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		if len(b.Instrs) == 0 {
			continue
		}
		for _, target := range b.Instrs[len(b.Instrs)-1].Targets {
			preds[target] = append(preds[target], BlockID(bi))
		}
	}

	// visited tells a computed-but-empty exit set apart from one the
	// iteration has not reached yet; a nil map alone cannot.
	exit := make([]map[ValueID]struct{}, n)
	visited := make([]bool, n)
	entrySet := func(bi int) map[ValueID]struct{} {
		set := make(map[ValueID]struct{})
		if BlockID(bi) == fn.Entry {
			for _, p := range fn.Params {
				set[p] = struct{}{}
			}
			return set
		}
		first := true
		for _, p := range preds[bi] {
			if !visited[p] {
				continue // not yet computed; intersection over known preds only
			}
			if first {
				for val := range exit[p] {
					set[val] = struct{}{}
				}
				first = false
				continue
			}
			for val := range set {
				if _, ok := exit[p][val]; !ok {
					delete(set, val)
				}
			}
		}
		return set
	}

	// iterate to a fixed point; the CFG is small and the lattice is finite
	changed := true
	for changed {
		changed = false
		for bi := range fn.Blocks {
			set := entrySet(bi)
			for ii := range fn.Blocks[bi].Instrs {
				instr := &fn.Blocks[bi].Instrs[ii]
				if instr.Dst != NoValue {
					set[instr.Dst] = struct{}{}
				}
			}
			if !visited[bi] || !sameSet(exit[bi], set) {
				exit[bi] = set
				visited[bi] = true
				changed = true
			}
		}
	}

	for bi := range fn.Blocks {
		set := entrySet(bi)
		for ii := range fn.Blocks[bi].Instrs {
			instr := &fn.Blocks[bi].Instrs[ii]
			for _, arg := range instr.Args {
				if arg == NoValue {
					continue
				}
				if _, ok := set[arg]; !ok {
					return violation(KindMIR, RuleMIRUseBeforeDef,
						"func %q block #%d: %s uses v%d before definition", fn.Name, fn.Blocks[bi].ID, instr.Op, arg)
				}
			}
			if instr.Dst != NoValue {
				set[instr.Dst] = struct{}{}
			}
		}
	}
	return nil
}

func sameSet(a, b map[ValueID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for val := range a {
		if _, ok := b[val]; !ok {
			return false
		}
	}
	return true
}
