package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ovie/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ovie",
	Short: "Ovie compiler integrity toolchain",
	Long:  `Ovie pipeline integrity tools: staged tree validation, environment checks, and bootstrap verification`,
	// error rendering happens in main so exit codes stay under our control
	SilenceErrors: true,
	SilenceUsage:  true,
}

// main registers subcommands and persistent flags, executes the root
// command, and maps the returned error onto the fixed exit-code contract:
// 0 success, 1 source errors, 2 invariant violation, 3 environment error.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(selfcheckCmd)
	rootCmd.AddCommand(verifyBootstrapCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		reportFailure(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func reportFailure(w *os.File, err error) {
	if report, ok := bugReportFor(err); ok {
		fmt.Fprintln(w, report)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
