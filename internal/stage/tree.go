package stage

import (
	"ovie/internal/source"
)

type (
	// NodeID indexes into Tree.Nodes. NoNode means "absent".
	NodeID uint32
	// SymbolID is a resolved symbol identifier. NoSymbol means "unassigned".
	SymbolID uint32
	// TypeID is a resolved type identifier. NoType means "unassigned";
	// TypeUnknown is the resolver's placeholder and is never concrete.
	TypeID uint32
	// ValueID names an SSA-like value inside a MIR function body.
	ValueID uint32
	// BlockID indexes into Func.Blocks.
	BlockID uint32
)

const (
	NoNode   NodeID   = 0
	NoSymbol SymbolID = 0
	NoType   TypeID   = 0
	NoValue  ValueID  = 0

	// TypeUnknown is the placeholder the type resolver assigns before
	// inference completes. A tree tagged HIR must not contain it.
	TypeUnknown TypeID = ^TypeID(0)
)

// NodeKind classifies tree nodes. High-level constructs (if/loop/match) are
// legal in AST and HIR trees only; the MIR validator rejects them as
// residual sugar.
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota
	NodeModule
	NodeFuncDecl
	NodeParamDecl
	NodeLetDecl
	NodeIdent
	NodeLiteral
	NodeCall
	NodeBinary
	NodeUnary
	NodeBlock
	NodeAssign
	NodeReturn
	NodeIf
	NodeLoop
	NodeMatch
)

func (k NodeKind) String() string {
	switch k {
	case NodeModule:
		return "module"
	case NodeFuncDecl:
		return "func-decl"
	case NodeParamDecl:
		return "param-decl"
	case NodeLetDecl:
		return "let-decl"
	case NodeIdent:
		return "ident"
	case NodeLiteral:
		return "literal"
	case NodeCall:
		return "call"
	case NodeBinary:
		return "binary"
	case NodeUnary:
		return "unary"
	case NodeBlock:
		return "block"
	case NodeAssign:
		return "assign"
	case NodeReturn:
		return "return"
	case NodeIf:
		return "if"
	case NodeLoop:
		return "loop"
	case NodeMatch:
		return "match"
	}
	return "invalid"
}

// IsDecl reports whether nodes of this kind introduce a symbol.
func (k NodeKind) IsDecl() bool {
	switch k {
	case NodeFuncDecl, NodeParamDecl, NodeLetDecl:
		return true
	}
	return false
}

// IsExpr reports whether nodes of this kind produce a value and therefore
// must carry a concrete type in HIR.
func (k NodeKind) IsExpr() bool {
	switch k {
	case NodeIdent, NodeLiteral, NodeCall, NodeBinary, NodeUnary:
		return true
	}
	return false
}

// IsHighLevel reports whether the construct must have been lowered away
// before MIR.
func (k NodeKind) IsHighLevel() bool {
	switch k {
	case NodeIf, NodeLoop, NodeMatch:
		return true
	}
	return false
}

// Node is one element of a stage tree. Nodes live in the tree's arena and
// reference each other by ID, following the frontend's arena layout.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Span     source.Span
	Children []NodeID
	// Symbol is the declared symbol on decl nodes and the referenced symbol
	// on ident nodes. Must be NoSymbol on every AST node.
	Symbol SymbolID
	// Type must be NoType on every AST node and concrete on every HIR
	// expression node.
	Type TypeID
}

// Op is a MIR instruction opcode.
type Op uint8

const (
	OpInvalid Op = iota
	OpConst
	OpBin
	OpCall
	OpLoad
	OpStore

	// terminators
	OpBr
	OpCondBr
	OpRet
)

func (op Op) String() string {
	switch op {
	case OpConst:
		return "const"
	case OpBin:
		return "bin"
	case OpCall:
		return "call"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpBr:
		return "br"
	case OpCondBr:
		return "condbr"
	case OpRet:
		return "ret"
	}
	return "invalid"
}

// IsTerminator reports whether the opcode ends a basic block.
func (op Op) IsTerminator() bool {
	switch op {
	case OpBr, OpCondBr, OpRet:
		return true
	}
	return false
}

// Instr is a single MIR instruction. Dst is the value it defines (NoValue
// for instructions without a result), Args the values it uses, Targets the
// successor blocks of a terminator.
type Instr struct {
	Op      Op
	Dst     ValueID
	Args    []ValueID
	Targets []BlockID
}

// Block is a MIR basic block. A well-formed block holds exactly one
// terminator instruction, in the last position.
type Block struct {
	ID     BlockID
	Instrs []Instr
}

// Terminators counts the terminator instructions in the block.
func (b *Block) Terminators() int {
	n := 0
	for i := range b.Instrs {
		if b.Instrs[i].Op.IsTerminator() {
			n++
		}
	}
	return n
}

// Func is one function body in MIR form.
type Func struct {
	Name   string
	Params []ValueID
	Entry  BlockID
	Blocks []Block
}

// ArtifactSymbol is one symbol in a backend artifact.
type ArtifactSymbol struct {
	Name     string
	Addr     uint64
	Resolved bool
}

// ABI is the artifact's declared binary interface.
type ABI struct {
	Triple       string
	CallConv     string
	PointerWidth uint8
}

// Artifact is the opaque backend output, reduced to what the validator
// needs: the symbol table and the declared ABI.
type Artifact struct {
	Format  string
	ABI     ABI
	Symbols []ArtifactSymbol
}

// Tree is a stage-tagged IR tree. It is owned exclusively by the pipeline
// step that produced it and handed by move to the validator, then to the
// next lowering step; no two goroutines may hold the same tree.
type Tree struct {
	Stage Kind
	Unit  string

	// Nodes is the arena for AST/HIR trees. Nodes[0] is a reserved
	// NodeInvalid sentinel so that NoNode never aliases a real node.
	Nodes []Node
	Root  NodeID

	// Funcs carries MIR bodies; empty for non-MIR stages.
	Funcs []Func

	// Artifact carries backend output; nil for non-Backend stages.
	Artifact *Artifact
}

// NewTree returns an empty tree tagged with the given stage, with the
// sentinel node pre-allocated.
func NewTree(kind Kind, unit string) *Tree {
	return &Tree{
		Stage: kind,
		Unit:  unit,
		Nodes: []Node{{ID: NoNode, Kind: NodeInvalid}},
	}
}

// AddNode appends a node to the arena and returns its ID.
func (t *Tree) AddNode(n Node) NodeID {
	id := NodeID(len(t.Nodes))
	n.ID = id
	t.Nodes = append(t.Nodes, n)
	return id
}

// Node returns the node for id, or nil when out of range or sentinel.
func (t *Tree) Node(id NodeID) *Node {
	if id == NoNode || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// TargetDesc is the per-triple ABI contract the backend artifact must
// agree with. The runtime environment's targets directory is the source
// of truth for these.
type TargetDesc struct {
	Triple       string
	CallConv     string
	PointerWidth uint8
}

// TargetCatalog resolves a target triple to its ABI descriptor.
type TargetCatalog interface {
	LookupTarget(triple string) (TargetDesc, bool)
}

// StaticTargets is a TargetCatalog backed by a map, for tests and for
// callers that pre-load every descriptor.
type StaticTargets map[string]TargetDesc

func (s StaticTargets) LookupTarget(triple string) (TargetDesc, bool) {
	d, ok := s[triple]
	return d, ok
}
