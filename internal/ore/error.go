package ore

import (
	"fmt"
)

// ErrorKind enumerates the ways environment resolution can fail.
type ErrorKind uint8

const (
	// ErrRootNotFound indicates no discovery source produced a candidate.
	ErrRootNotFound ErrorKind = iota + 1
	ErrSubpathMissing
	ErrSubpathNotDir
	ErrSubpathUnreadable
)

// Error is a deployment/installation problem. It is fatal before any
// compilation starts and maps to exit code 3. It always names the root
// that was assumed and the exact subpath that failed, so a user is never
// left guessing which root the compiler picked.
type Error struct {
	Kind    ErrorKind
	Root    string
	Source  Source
	Subpath string // required subdirectory name, empty for ErrRootNotFound
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrRootNotFound:
		return fmt.Sprintf("no runtime environment root found (checked %s, %s, %s, system locations)",
			EnvRootVar, MarkerDirName, "executable directory")
	case ErrSubpathMissing:
		return fmt.Sprintf("runtime environment root %s (from %s) is missing required subdirectory %q", e.Root, e.Source, e.Subpath)
	case ErrSubpathNotDir:
		return fmt.Sprintf("runtime environment root %s (from %s): %q exists but is not a directory", e.Root, e.Source, e.Subpath)
	case ErrSubpathUnreadable:
		if e.Err != nil {
			return fmt.Sprintf("runtime environment root %s (from %s): %q is not readable: %v", e.Root, e.Source, e.Subpath, e.Err)
		}
		return fmt.Sprintf("runtime environment root %s (from %s): %q is not readable", e.Root, e.Source, e.Subpath)
	default:
		return fmt.Sprintf("runtime environment error kind=%d root=%s", e.Kind, e.Root)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
