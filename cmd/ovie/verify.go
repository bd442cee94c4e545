package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ovie/internal/bootstrap"
	"ovie/internal/ore"
	"ovie/internal/project"
	"ovie/internal/version"
)

var verifyBootstrapCmd = &cobra.Command{
	Use:   "verify-bootstrap [flags] [<source-tree> <bootstrap-binary>]",
	Short: "Verify that the compiler reproduces itself across generations",
	Long: `Run the three-generation bootstrap check: the trusted compiler builds
Gen1 from source, Gen1 builds Gen2 from the same source, and the two
artifacts must hash equal after build-stamp normalization.

Without arguments the [bootstrap] table of ovie.toml supplies the source
tree and compiler.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runVerifyBootstrap,
}

func init() {
	verifyBootstrapCmd.Flags().Bool("strict", false, "treat a non-reproducible result as a failure (exit 1)")
	verifyBootstrapCmd.Flags().Duration("timeout", bootstrap.DefaultTimeout, "per-compile timeout")
	verifyBootstrapCmd.Flags().String("work-dir", "", "directory for generation artifacts (default: temporary)")
	verifyBootstrapCmd.Flags().Bool("no-log", false, "skip appending the report to the environment audit log")
	verifyBootstrapCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVerifyBootstrap(cmd *cobra.Command, args []string) error {
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return fmt.Errorf("failed to get strict flag: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}
	workDir, err := cmd.Flags().GetString("work-dir")
	if err != nil {
		return fmt.Errorf("failed to get work-dir flag: %w", err)
	}
	noLog, err := cmd.Flags().GetBool("no-log")
	if err != nil {
		return fmt.Errorf("failed to get no-log flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	env, err := ore.Resolve()
	if err != nil {
		return err
	}

	sourceTree, compilerBin, err := verifyInputs(args, env)
	if err != nil {
		return err
	}

	req := bootstrap.Request{
		SourceTree:      sourceTree,
		BootstrapBinary: compilerBin,
		WorkDir:         workDir,
		Timeout:         timeout,
		CompilerVersion: version.Version,
	}
	report, verifyErr := bootstrap.Verify(cmd.Context(), req)

	// Persist even failed runs: the audit log is how drift across
	// machines gets noticed.
	if !noLog && report != nil {
		logPath := filepath.Join(env.Logs, "bootstrap.log")
		if logErr := report.AppendToLog(logPath); logErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", logErr)
		}
	}

	if report != nil {
		if format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else if !quiet {
			renderBootstrapPretty(cmd, report)
		}
	}

	if verifyErr != nil {
		return verifyErr
	}
	if !report.Reproducible && strict {
		return &exitError{code: exitSource, err: fmt.Errorf("bootstrap is not reproducible")}
	}
	return nil
}

// verifyInputs resolves the source tree and Gen0 binary from the
// arguments, falling back to ovie.toml and then to the installed
// compiler under the environment's bin directory.
func verifyInputs(args []string, env *ore.Environment) (sourceTree, compilerBin string, err error) {
	switch len(args) {
	case 2:
		return args[0], args[1], nil
	case 1:
		sourceTree = args[0]
	}

	manifest, ok, err := project.Load("")
	if err != nil {
		return "", "", err
	}
	if sourceTree == "" {
		if !ok || manifest.BootstrapSource() == "" {
			return "", "", fmt.Errorf("no source tree: pass one explicitly or set [bootstrap].source in %s", project.ManifestName)
		}
		sourceTree = manifest.BootstrapSource()
	}

	if ok && manifest.Config.Bootstrap.Compiler != "" {
		compilerBin = filepath.Join(manifest.Root, filepath.FromSlash(manifest.Config.Bootstrap.Compiler))
	} else {
		compilerBin = filepath.Join(env.Bin, "ovie")
	}
	if _, statErr := os.Stat(compilerBin); statErr != nil {
		return "", "", fmt.Errorf("bootstrap compiler %q: %w", compilerBin, statErr)
	}
	return sourceTree, compilerBin, nil
}

func renderBootstrapPretty(cmd *cobra.Command, report *bootstrap.Report) {
	out := cmd.OutOrStdout()
	for _, h := range report.Hashes {
		fmt.Fprintf(out, "%-4s %s\n", h.Generation, h.Hash)
	}
	fmt.Fprintf(out, "environment %s\n", report.EnvironmentHash)
	fmt.Fprintf(out, "checked at  %s\n", report.Timestamp.Format(time.RFC3339))
	if report.Failure != "" {
		fmt.Fprintf(out, "failed: %s\n", report.Failure)
		return
	}
	if report.Reproducible {
		fmt.Fprintln(out, "reproducible: yes")
	} else {
		fmt.Fprintln(out, "reproducible: NO (Gen1 and Gen2 differ)")
	}
}
