package main

import (
	"errors"

	"ovie/internal/buildpipeline"
	"ovie/internal/ore"
	"ovie/internal/stage"
)

// The exit-code contract is part of the tool's public interface and is
// consumed by build scripts:
//
//	0  success
//	1  source errors, tool failures, bad invocations
//	2  invariant violation (a compiler bug, never a user error)
//	3  environment error (broken or missing installation root)
//
// Codes never overlap: an error maps to exactly one of them.
const (
	exitOK          = 0
	exitSource      = 1
	exitViolation   = 2
	exitEnvironment = 3
)

// exitError pins a specific exit code onto an error that would otherwise
// fall through to the default.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var violation *stage.Violation
	if errors.As(err, &violation) {
		return exitViolation
	}
	var oerr *ore.Error
	if errors.As(err, &oerr) {
		return exitEnvironment
	}
	return exitSource
}

// bugReportFor returns the ready-to-file bug report for violation errors.
// Violations are compiler defects; the renderer asks the user to report
// them instead of blaming the input.
func bugReportFor(err error) (string, bool) {
	var verr *buildpipeline.ViolationError
	if errors.As(err, &verr) {
		return verr.Violation.BugReport(), true
	}
	var violation *stage.Violation
	if errors.As(err, &violation) {
		return violation.BugReport(), true
	}
	return "", false
}
