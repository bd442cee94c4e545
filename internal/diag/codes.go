package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is the fallback for diagnostics without an assigned code.
	UnknownCode Code = 0

	// Lexical (reserved for the external frontend)
	LexInfo        Code = 1000
	LexUnknownChar Code = 1001

	// Syntactic (reserved for the external frontend)
	SynInfo            Code = 2000
	SynUnexpectedToken Code = 2001

	// Name resolution
	NameInfo           Code = 3000
	NameUnresolved     Code = 3001
	NameDuplicate      Code = 3002
	NameShadowsBuiltin Code = 3003

	// Types
	TypeInfo         Code = 4000
	TypeMismatch     Code = 4001
	TypeUnknown      Code = 4002
	TypeNotCallable  Code = 4003
	TypeArityWrong   Code = 4004
	TypeNoSuchField  Code = 4005

	// Control flow
	FlowInfo            Code = 5000
	FlowUnreachable     Code = 5001
	FlowMissingReturn   Code = 5002
	FlowUseBeforeInit   Code = 5003

	// Bootstrap verification tooling
	BootInfo             Code = 6000
	BootCompileFailed    Code = 6001
	BootTimeout          Code = 6002
	BootArtifactMissing  Code = 6003
	BootHashFailed       Code = 6004
	BootNotReproducible  Code = 6005
	BootLogWriteFailed   Code = 6006

	// Runtime environment
	EnvInfo             Code = 7000
	EnvRootNotFound     Code = 7001
	EnvSubpathMissing   Code = 7002
	EnvSubpathNotDir    Code = 7003
	EnvSubpathUnreadable Code = 7004
	EnvTargetBadDescriptor Code = 7005
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	LexInfo:        "lexical information",
	LexUnknownChar: "unknown character",

	SynInfo:            "syntax information",
	SynUnexpectedToken: "unexpected token",

	NameInfo:           "name resolution information",
	NameUnresolved:     "unresolved identifier",
	NameDuplicate:      "duplicate declaration",
	NameShadowsBuiltin: "declaration shadows a builtin",

	TypeInfo:        "type information",
	TypeMismatch:    "type mismatch",
	TypeUnknown:     "expression has no concrete type",
	TypeNotCallable: "expression is not callable",
	TypeArityWrong:  "wrong number of arguments",
	TypeNoSuchField: "no such field",

	FlowInfo:          "control-flow information",
	FlowUnreachable:   "unreachable code",
	FlowMissingReturn: "missing return",
	FlowUseBeforeInit: "use of possibly uninitialized value",

	BootInfo:            "bootstrap information",
	BootCompileFailed:   "bootstrap compile step failed",
	BootTimeout:         "bootstrap compile step timed out",
	BootArtifactMissing: "bootstrap artifact not produced",
	BootHashFailed:      "failed to hash bootstrap artifact",
	BootNotReproducible: "bootstrap generations are not byte-identical",
	BootLogWriteFailed:  "failed to append verification report to audit log",

	EnvInfo:                "environment information",
	EnvRootNotFound:        "runtime environment root not found",
	EnvSubpathMissing:      "required runtime environment subpath is missing",
	EnvSubpathNotDir:       "required runtime environment subpath is not a directory",
	EnvSubpathUnreadable:   "required runtime environment subpath is not readable",
	EnvTargetBadDescriptor: "malformed target descriptor",
}

// ID renders the stable public form of a code, e.g. "E_TYPE_004".
// The numeric suffix is the code's offset inside its category block.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("E_LEX_%03d", ic-1000)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("E_SYN_%03d", ic-2000)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("E_NAME_%03d", ic-3000)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("E_TYPE_%03d", ic-4000)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("E_FLOW_%03d", ic-5000)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("E_BOOT_%03d", ic-6000)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("E_ENV_%03d", ic-7000)
	}
	return "E_0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
