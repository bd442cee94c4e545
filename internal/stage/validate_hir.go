package stage

// validateHIR checks the resolved, typed tree. Name resolution failures are
// expected to have surfaced upstream as user diagnostics; a reference that
// reaches HIR unresolved is a compiler defect, so it raises a violation
// rather than a diagnostic.
func (v *Validator) validateHIR(tree *Tree) *Violation {
	if viol := checkArena(tree); viol != nil {
		return viol
	}

	// collect the symbols declared by this tree
	declared := make(map[SymbolID]struct{})
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		if n.Kind.IsDecl() && n.Symbol != NoSymbol {
			declared[n.Symbol] = struct{}{}
		}
	}

	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		switch {
		case n.Kind == NodeInvalid:
			continue
		case n.Kind == NodeIdent:
			if n.Symbol == NoSymbol {
				return violation(KindHIR, RuleHIRUnresolved,
					"ident node #%d has no resolved symbol", n.ID)
			}
			if _, ok := declared[n.Symbol]; !ok {
				return violation(KindHIR, RuleHIRDanglingRef,
					"ident node #%d references symbol %d with no declaration in the same tree", n.ID, n.Symbol)
			}
		case n.Kind.IsDecl():
			if n.Symbol == NoSymbol {
				return violation(KindHIR, RuleHIRUnresolved,
					"%s node #%d declares no symbol", n.Kind, n.ID)
			}
		}

		if n.Kind.IsExpr() {
			if n.Type == NoType || n.Type == TypeUnknown {
				return violation(KindHIR, RuleHIRNoType,
					"%s node #%d has placeholder type", n.Kind, n.ID)
			}
		}
	}
	return nil
}
