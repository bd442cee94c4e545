package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ovie/internal/ore"
)

var selfcheckCmd = &cobra.Command{
	Use:   "selfcheck",
	Short: "Check the runtime environment without compiling anything",
	Long: `Discover the ovie runtime environment root and verify every required
subdirectory. Reports all failures at once and never triggers compilation.`,
	Args: cobra.NoArgs,
	RunE: runSelfcheck,
}

func init() {
	selfcheckCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runSelfcheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	report, err := ore.SelfCheck("")
	if err != nil {
		// No candidate root anywhere. The ore.Error already names every
		// discovery source that was tried.
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case "pretty":
		renderSelfcheckPretty(cmd, report, useColor(colorMode))
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	if !report.OK {
		return &exitError{code: exitEnvironment, err: fmt.Errorf("environment self-check failed for root %q", report.Root)}
	}
	return nil
}

func renderSelfcheckPretty(cmd *cobra.Command, report *ore.SelfCheckReport, colored bool) {
	out := cmd.OutOrStdout()
	okMark := "ok"
	failMark := "FAIL"
	if colored {
		okMark = color.GreenString("ok")
		failMark = color.RedString("FAIL")
	}
	fmt.Fprintf(out, "root:   %s\n", report.Root)
	fmt.Fprintf(out, "source: %s\n", report.Source)
	for _, check := range report.Checks {
		mark := okMark
		if !check.OK {
			mark = failMark
		}
		fmt.Fprintf(out, "  %-8s %s", check.Subpath, mark)
		if check.Detail != "" {
			fmt.Fprintf(out, "  (%s)", check.Detail)
		}
		fmt.Fprintln(out)
	}
}
