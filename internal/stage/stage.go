// Package stage defines the stage-tagged IR tree model and the validators
// that gate every boundary of the lowering pipeline.
package stage

// Kind identifies one of the four fixed pipeline stages. The set is closed:
// the validator dispatcher switches exhaustively over it and anything else
// is rejected before validation begins.
type Kind uint8

const (
	// KindAST is the grammar-shaped tree produced by the external frontend.
	KindAST Kind = iota
	// KindHIR is the resolved, typed high-level IR.
	KindHIR
	// KindMIR is the explicit control-flow IR handed to code generation.
	KindMIR
	// KindBackend is the object artifact produced by a code generator.
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindAST:
		return "AST"
	case KindHIR:
		return "HIR"
	case KindMIR:
		return "MIR"
	case KindBackend:
		return "Backend"
	}
	return "UNKNOWN"
}

// Valid reports whether k is one of the four defined stages.
func (k Kind) Valid() bool {
	return k <= KindBackend
}

// Next returns the stage that a lowering step consuming k must produce.
// The second result is false for KindBackend, which is terminal.
func (k Kind) Next() (Kind, bool) {
	if k >= KindBackend {
		return k, false
	}
	return k + 1, true
}
