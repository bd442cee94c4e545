package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Label names a compiler generation in a verification run.
type Label string

const (
	// Gen0 is the trusted external bootstrap toolchain. Its hash is
	// recorded for audit but never enters the equality check.
	Gen0 Label = "Gen0"
	// Gen1 is Gen0's output from compiling the compiler's own sources.
	Gen1 Label = "Gen1"
	// Gen2 is Gen1's output from compiling the same sources again.
	Gen2 Label = "Gen2"
)

// Generation is the transient in-memory record of one compiler
// generation. Created fresh per verification run and discarded after the
// report is emitted; the binary may stay on disk.
type Generation struct {
	Label       Label
	BinaryPath  string
	ContentHash Digest
}

// GenerationHash is one (generation, hash) pair in a report.
type GenerationHash struct {
	Generation Label  `json:"generation"`
	Hash       string `json:"hash"`
}

// Report is the immutable outcome of one bootstrap verification.
// Persisted to the audit log as a single JSON line.
type Report struct {
	Reproducible    bool             `json:"reproducible"`
	Hashes          []GenerationHash `json:"reproducibility_hashes"`
	Timestamp       time.Time        `json:"timestamp"`
	EnvironmentHash string           `json:"environment_hash"`
	// ChainHash is the aggregate digest over Gen0, Gen1 and Gen2 in that
	// order; one value to compare when diffing two audit log lines.
	ChainHash string `json:"chain_hash,omitempty"`
	// Failure carries the explanatory text when an external invocation
	// failed; empty for clean runs (including non-reproducible ones).
	Failure string `json:"failure,omitempty"`
}

// AppendToLog appends the report as one JSON line to the audit log at
// path, creating the file if needed.
func (r *Report) AppendToLog(path string) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640) // #nosec G304 -- log path comes from the resolved environment
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append to audit log: %w", err)
	}
	return nil
}
