package stage

// validateBackend checks the object artifact: every referenced symbol must
// carry a resolved address, and the declared ABI must agree with the
// environment's descriptor for the declared target triple.
func (v *Validator) validateBackend(tree *Tree) *Violation {
	art := tree.Artifact
	if art == nil {
		return violation(KindBackend, RuleBackendNoArtifact, "tree %q has no artifact", tree.Unit)
	}

	for i := range art.Symbols {
		sym := &art.Symbols[i]
		if !sym.Resolved {
			return violation(KindBackend, RuleBackendUnresolved,
				"symbol %q has no resolved address", sym.Name)
		}
	}

	if art.ABI.Triple == "" {
		return violation(KindBackend, RuleBackendUnknownABI, "artifact for %q declares no target triple", tree.Unit)
	}
	if v.Targets == nil {
		return violation(KindBackend, RuleBackendUnknownABI,
			"no target catalog available to check triple %q", art.ABI.Triple)
	}
	desc, ok := v.Targets.LookupTarget(art.ABI.Triple)
	if !ok {
		return violation(KindBackend, RuleBackendUnknownABI,
			"triple %q is not described by the environment's targets", art.ABI.Triple)
	}
	if art.ABI.CallConv != desc.CallConv {
		return violation(KindBackend, RuleBackendABIMismatch,
			"artifact declares calling convention %q, target %q requires %q",
			art.ABI.CallConv, desc.Triple, desc.CallConv)
	}
	if desc.PointerWidth != 0 && art.ABI.PointerWidth != desc.PointerWidth {
		return violation(KindBackend, RuleBackendABIMismatch,
			"artifact declares %d-bit pointers, target %q requires %d-bit",
			art.ABI.PointerWidth, desc.Triple, desc.PointerWidth)
	}
	return nil
}
