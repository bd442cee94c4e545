package stage

// validateAST confirms the tree is grammar-shaped only. The frontend hands
// us exactly what the parser built: no resolved symbols, no types, no
// lowered forms. Any stage-inappropriate metadata means some later phase
// leaked into the parser's output.
func (v *Validator) validateAST(tree *Tree) *Violation {
	if viol := checkArena(tree); viol != nil {
		return viol
	}
	if tree.Root == NoNode && len(tree.Nodes) > 1 {
		return violation(KindAST, RuleRootMissing, "tree %q has %d nodes but no root", tree.Unit, len(tree.Nodes)-1)
	}

	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		if n.Kind == NodeInvalid {
			continue // arena sentinel
		}
		if n.Symbol != NoSymbol {
			return violation(KindAST, RuleASTSymbolTagged,
				"%s node #%d carries resolved symbol %d", n.Kind, n.ID, n.Symbol)
		}
		if n.Type != NoType {
			return violation(KindAST, RuleASTTypeTagged,
				"%s node #%d carries type %d", n.Kind, n.ID, n.Type)
		}
	}

	if len(tree.Funcs) > 0 {
		return violation(KindAST, RuleASTLoweredForm, "tree %q carries %d MIR function bodies", tree.Unit, len(tree.Funcs))
	}
	if tree.Artifact != nil {
		return violation(KindAST, RuleASTLoweredForm, "tree %q carries a backend artifact", tree.Unit)
	}
	return nil
}
