// Package bootstrap proves that the compiler can reproduce itself
// bit-for-bit across generations: Gen0 (trusted bootstrap toolchain)
// builds Gen1 from the compiler's own sources, Gen1 builds Gen2 from the
// same sources, and the two artifacts must hash equal after build-stamp
// normalization.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"ovie/internal/diag"
)

// Request configures one verification run.
type Request struct {
	// SourceTree is the compiler's own source directory.
	SourceTree string
	// BootstrapBinary is the trusted Gen0 compiler.
	BootstrapBinary string
	// WorkDir receives the gen1/ and gen2/ output directories. A fresh
	// temporary directory is used when empty.
	WorkDir string
	// Timeout bounds each compile invocation; DefaultTimeout when zero.
	Timeout time.Duration
	// CompilerVersion feeds the environment fingerprint.
	CompilerVersion string
	// OutputName is the artifact file name each generation produces.
	OutputName string
}

// compile-self argument contract: the compiler is invoked as
// `<bin> build <source> -o <artifact>`.
func compileArgs(sourceTree, outPath string) []string {
	return []string{"build", sourceTree, "-o", outPath}
}

// Verify runs the three-generation bootstrap check and returns the
// report. The error is non-nil only for tooling failures (invocation
// errors, unreadable artifacts); a clean run with differing hashes
// returns reproducible == false and a nil error, and the caller decides
// whether to block on it.
func Verify(ctx context.Context, req Request) (*Report, error) {
	report := &Report{
		Timestamp:       time.Now().UTC(),
		EnvironmentHash: HostFingerprint(req.CompilerVersion).Hash(),
	}

	workDir := req.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "ovie-bootstrap-*")
		if err != nil {
			return report, fmt.Errorf("create work directory: %w", err)
		}
		workDir = dir
	}
	outputName := req.OutputName
	if outputName == "" {
		outputName = "ovie"
	}

	// Gen0's hash is never compared against anything, but it is recorded
	// for audit. A Gen0 we cannot read at all is a tooling failure.
	hash0, err := HashArtifact(req.BootstrapBinary)
	if err != nil {
		return failReport(report, &ToolFailure{
			Code: diag.BootArtifactMissing, Step: "gen0",
			Msg: fmt.Sprintf("cannot read bootstrap binary %q: %v", req.BootstrapBinary, err), Wrapped: err,
		})
	}
	report.Hashes = append(report.Hashes, GenerationHash{Generation: Gen0, Hash: hash0.Hex()})

	// Gen0 compiles the compiler's sources, producing Gen1.
	gen1Path := filepath.Join(workDir, "gen1", outputName)
	if err := os.MkdirAll(filepath.Dir(gen1Path), 0o750); err != nil {
		return failReport(report, &ToolFailure{Code: diag.BootCompileFailed, Step: "gen1", Msg: err.Error(), Wrapped: err})
	}
	if tf := invokeCompile(ctx, "gen1", req.BootstrapBinary, compileArgs(req.SourceTree, gen1Path), workDir, req.Timeout); tf != nil {
		return failReport(report, tf)
	}

	// The two compile invocations are strictly sequential (Gen2 needs
	// Gen1's binary), but hashing Gen1 may overlap the Gen2 compile.
	gen1 := Generation{Label: Gen1, BinaryPath: gen1Path}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := HashArtifact(gen1Path)
		if err != nil {
			return &ToolFailure{Code: diag.BootHashFailed, Step: "gen1",
				Msg: fmt.Sprintf("hash %q: %v", gen1Path, err), Wrapped: err}
		}
		gen1.ContentHash = h
		return nil
	})

	gen2Path := filepath.Join(workDir, "gen2", outputName)
	g.Go(func() error {
		if err := os.MkdirAll(filepath.Dir(gen2Path), 0o750); err != nil {
			return &ToolFailure{Code: diag.BootCompileFailed, Step: "gen2", Msg: err.Error(), Wrapped: err}
		}
		if tf := invokeCompile(gctx, "gen2", gen1Path, compileArgs(req.SourceTree, gen2Path), workDir, req.Timeout); tf != nil {
			return tf
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if tf, ok := err.(*ToolFailure); ok {
			return failReport(report, tf)
		}
		return failReport(report, &ToolFailure{Code: diag.BootCompileFailed, Step: "gen2", Msg: err.Error(), Wrapped: err})
	}

	gen2 := Generation{Label: Gen2, BinaryPath: gen2Path}
	hash2, err := HashArtifact(gen2Path)
	if err != nil {
		return failReport(report, &ToolFailure{Code: diag.BootHashFailed, Step: "gen2",
			Msg: fmt.Sprintf("hash %q: %v", gen2Path, err), Wrapped: err})
	}
	gen2.ContentHash = hash2

	report.Hashes = append(report.Hashes,
		GenerationHash{Generation: Gen1, Hash: gen1.ContentHash.Hex()},
		GenerationHash{Generation: Gen2, Hash: gen2.ContentHash.Hex()},
	)
	report.ChainHash = Combine(hash0, gen1.ContentHash, gen2.ContentHash).Hex()
	report.Reproducible = gen1.ContentHash == gen2.ContentHash
	return report, nil
}

// failReport stamps the failure onto the report and returns both. The
// report stays usable for logging even when verification aborted.
func failReport(report *Report, tf *ToolFailure) (*Report, error) {
	report.Reproducible = false
	report.Failure = tf.Error()
	return report, tf
}
