package stage

import (
	"fmt"
	"strings"
	"time"
)

// Rule identifies the invariant a violation broke. Stable, used in bug
// reports and tests.
type Rule string

const (
	RuleTagMismatch     Rule = "stage/tag-mismatch"
	RuleTagUnknown      Rule = "stage/tag-unknown"
	RuleNodeOutOfRange  Rule = "tree/node-out-of-range"
	RuleRootMissing     Rule = "tree/root-missing"
	RuleASTSymbolTagged Rule = "ast/symbol-tagged-node"
	RuleASTTypeTagged   Rule = "ast/type-tagged-node"
	RuleASTLoweredForm  Rule = "ast/lowered-form-present"
	RuleHIRUnresolved   Rule = "hir/unresolved-reference"
	RuleHIRDanglingRef  Rule = "hir/reference-to-undeclared-symbol"
	RuleHIRNoType       Rule = "hir/expression-without-concrete-type"
	RuleMIRNoTerminator Rule = "mir/block-without-terminator"
	RuleMIRManyTerms    Rule = "mir/block-with-multiple-terminators"
	RuleMIRTermNotLast  Rule = "mir/terminator-not-last"
	RuleMIRHighLevel    Rule = "mir/residual-high-level-construct"
	RuleMIRBadTarget    Rule = "mir/branch-target-out-of-range"
	RuleMIRUseBeforeDef Rule = "mir/use-before-def"
	RuleBackendNoArtifact  Rule = "backend/artifact-missing"
	RuleBackendUnresolved  Rule = "backend/unresolved-symbol"
	RuleBackendUnknownABI  Rule = "backend/unknown-target-triple"
	RuleBackendABIMismatch Rule = "backend/abi-descriptor-mismatch"
)

// Violation reports a broken stage invariant. It is never a user-facing
// error: it signals a defect in the compiler itself, aborts the process
// with exit code 2, and is never retried or downgraded to a warning.
type Violation struct {
	Stage      Kind
	Rule       Rule
	Node       string // description of the offending node
	DetectedAt time.Time
}

func violation(stage Kind, rule Rule, format string, args ...any) *Violation {
	return &Violation{
		Stage:      stage,
		Rule:       rule,
		Node:       fmt.Sprintf(format, args...),
		DetectedAt: time.Now(),
	}
}

func (v *Violation) Error() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invariant violation at stage %s [%s]: %s", v.Stage, v.Rule, v.Node)
}

// BugReport renders the violation as the template shown to users. It never
// offers "fix your code" guidance; the defect is ours.
func (v *Violation) BugReport() string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("internal compiler error: a pipeline invariant was violated.\n")
	b.WriteString("This is a bug in the compiler, not in your program.\n\n")
	fmt.Fprintf(&b, "  stage:    %s\n", v.Stage)
	fmt.Fprintf(&b, "  rule:     %s\n", v.Rule)
	fmt.Fprintf(&b, "  node:     %s\n", v.Node)
	fmt.Fprintf(&b, "  detected: %s\n\n", v.DetectedAt.Format(time.RFC3339Nano))
	b.WriteString("Please file a bug report and attach this dump together with the\n")
	b.WriteString("command you ran.\n")
	return b.String()
}
