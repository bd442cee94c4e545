package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"ovie/internal/diag"
)

// DefaultTimeout bounds one external compile invocation. Exceeding it is
// an invocation failure, not a hang: the child is forcibly terminated and
// its partial output discarded.
const DefaultTimeout = 10 * time.Minute

// ToolFailure reports a failed external invocation. It is a tooling
// problem (SourceError-class, exit 1), never an invariant violation: the
// compiler under test may be fine while the bootstrap process is not.
type ToolFailure struct {
	Code    diag.Code
	Step    string
	Msg     string
	Stderr  string
	Wrapped error
}

func (e *ToolFailure) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("bootstrap %s: %s", e.Step, e.Msg)
	if e.Stderr != "" {
		msg += "\n" + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *ToolFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// normalizedEnv builds the environment both compile invocations run
// under: identical, sorted, with locale and timezone pinned. Anything
// nondeterministic here is the most likely source of a false-negative
// verification, so it is normalized at the source rather than papered
// over in the hash comparison.
func normalizedEnv() []string {
	env := []string{
		"LANG=C",
		"LC_ALL=C",
		"SOURCE_DATE_EPOCH=0",
		"TZ=UTC",
	}
	for _, keep := range []string{"PATH", "HOME", "OVIE_HOME", "SYSTEMROOT", "TEMP", "TMP"} {
		if val := os.Getenv(keep); val != "" {
			env = append(env, keep+"="+val)
		}
	}
	sort.Strings(env)
	return env
}

// invokeCompile runs one external compile step as a scoped resource:
// spawn, communicate under the deadline, and guaranteed kill-and-cleanup
// on every exit path including error and timeout.
func invokeCompile(ctx context.Context, step, bin string, args []string, workDir string, timeout time.Duration) *ToolFailure {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 -- bin and args come from the verification request
	cmd := exec.CommandContext(cctx, bin, args...)
	cmd.Dir = workDir
	cmd.Env = normalizedEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// if the process ignores the kill on cancel, give up waiting shortly after
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return &ToolFailure{
			Code:    diag.BootTimeout,
			Step:    step,
			Msg:     fmt.Sprintf("%q exceeded the %s timeout and was killed", bin, timeout),
			Wrapped: cctx.Err(),
		}
	}
	return &ToolFailure{
		Code:    diag.BootCompileFailed,
		Step:    step,
		Msg:     fmt.Sprintf("%q exited with an error: %v", bin, err),
		Stderr:  stderr.String(),
		Wrapped: err,
	}
}
