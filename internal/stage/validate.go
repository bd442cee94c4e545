package stage

// Validator checks stage trees for structural well-formedness. Exactly one
// check exists per stage tag; a tree is only ever validated against the
// checker matching its own tag. Validation is mandatory and non-bypassable:
// there is no build mode that skips it.
type Validator struct {
	// Targets supplies ABI descriptors for the Backend stage. May be nil
	// for pipelines that never reach Backend validation.
	Targets TargetCatalog
}

// New returns a Validator bound to the given target catalog.
func New(targets TargetCatalog) *Validator {
	return &Validator{Targets: targets}
}

// Validate dispatches the tree to the checker for its own tag. The switch
// is exhaustive over the closed stage set; an out-of-range tag is itself a
// violation.
func (v *Validator) Validate(tree *Tree) *Violation {
	if tree == nil {
		return violation(KindAST, RuleRootMissing, "nil tree")
	}
	switch tree.Stage {
	case KindAST:
		return v.validateAST(tree)
	case KindHIR:
		return v.validateHIR(tree)
	case KindMIR:
		return v.validateMIR(tree)
	case KindBackend:
		return v.validateBackend(tree)
	default:
		return violation(tree.Stage, RuleTagUnknown, "tree %q carries unknown stage tag %d", tree.Unit, uint8(tree.Stage))
	}
}

// ValidateAs verifies the tree against the validator for want. A tree whose
// tag differs from want is a violation, not a user error: some pipeline
// step handed a tree to the wrong checker.
func (v *Validator) ValidateAs(want Kind, tree *Tree) *Violation {
	if tree == nil {
		return violation(want, RuleRootMissing, "nil tree")
	}
	if tree.Stage != want {
		return violation(want, RuleTagMismatch, "tree %q is tagged %s, validated as %s", tree.Unit, tree.Stage, want)
	}
	return v.Validate(tree)
}

// checkArena verifies that every child reference lands inside the arena.
// Shared by the AST and HIR checkers.
func checkArena(tree *Tree) *Violation {
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		for _, child := range n.Children {
			if int(child) >= len(tree.Nodes) || child == NoNode {
				return violation(tree.Stage, RuleNodeOutOfRange,
					"%s node #%d references child #%d outside arena of %d nodes", n.Kind, n.ID, child, len(tree.Nodes))
			}
		}
	}
	if tree.Root != NoNode && int(tree.Root) >= len(tree.Nodes) {
		return violation(tree.Stage, RuleNodeOutOfRange, "root #%d outside arena of %d nodes", tree.Root, len(tree.Nodes))
	}
	return nil
}
