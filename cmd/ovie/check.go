package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ovie/internal/buildpipeline"
	"ovie/internal/diagfmt"
	"ovie/internal/observ"
	"ovie/internal/ore"
	"ovie/internal/project"
	"ovie/internal/source"
	"ovie/internal/stage"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [<unit.otree|directory>]",
	Short: "Validate stage-tree dumps against the pipeline invariants",
	Long: `Validate serialized stage trees (.otree dumps) at their tagged stage.
Without an argument the trees directory from ovie.toml is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().String("target", "", "target triple for backend validation (default: every installed target)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	targetFlag, err := cmd.Flags().GetString("target")
	if err != nil {
		return fmt.Errorf("failed to get target flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	// Environment resolution gates everything: no validation without a
	// healthy installation root.
	env, err := ore.Resolve()
	if err != nil {
		return err
	}
	targets, err := loadTargetCatalog(env, targetFlag)
	if err != nil {
		return err
	}

	units, err := collectUnits(args)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return fmt.Errorf("no %s dumps to check", stage.DumpExt)
	}

	timer := observ.NewTimer()
	req := &buildpipeline.Request{
		Units:          units,
		Targets:        targets,
		MaxDiagnostics: maxDiagnostics,
		Timer:          timer,
		Parallelism:    jobs,
	}

	var result buildpipeline.Result
	var runErr error
	if format == "pretty" && shouldUseTUI(mode) && !quiet {
		names := make([]string, len(units))
		for i, u := range units {
			names[i] = u.Name
		}
		result, runErr = runPipelineWithUI(cmd.Context(), "ovie check", names, req)
	} else {
		result, runErr = buildpipeline.Run(cmd.Context(), req)
	}

	fs := source.NewFileSet()
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	if result.Bag != nil && result.Bag.Len() > 0 {
		switch format {
		case "json":
			if err := diagfmt.JSON(cmd.OutOrStdout(), result.Bag, fs, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pathMode,
				Max:              maxDiagnostics,
				IncludeNotes:     withNotes,
				IncludeFixes:     suggest,
			}); err != nil {
				return err
			}
		default:
			diagfmt.Pretty(cmd.OutOrStdout(), result.Bag, fs, diagfmt.PrettyOpts{
				Color:           useColor(colorMode),
				PathMode:        pathMode,
				ShowNotes:       withNotes,
				ShowFixes:       suggest,
				ShowExplanation: true,
			})
		}
	}
	if showTimings && !quiet {
		printStageTimings(cmd.ErrOrStderr(), result.Timings)
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if runErr != nil {
		return runErr
	}
	if result.Bag != nil && result.Bag.HasErrors() {
		return &exitError{code: exitSource, err: fmt.Errorf("validation reported errors")}
	}
	if !quiet && format == "pretty" {
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d unit(s), no findings\n", len(units))
	}
	return nil
}

// collectUnits resolves the argument (or the project manifest) to the set
// of stage dumps to validate, sorted for a stable unit order.
func collectUnits(args []string) ([]buildpipeline.UnitSource, error) {
	root := ""
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, fmt.Errorf("cannot stat %q: %w", args[0], err)
		}
		if !info.IsDir() {
			if filepath.Ext(args[0]) != stage.DumpExt {
				return nil, fmt.Errorf("%q is not a %s dump", args[0], stage.DumpExt)
			}
			return []buildpipeline.UnitSource{{Name: unitName(args[0]), Path: args[0]}}, nil
		}
		root = args[0]
	} else {
		manifest, ok, err := project.Load("")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no %s found\nplease pass a %s dump or directory explicitly", project.ManifestName, stage.DumpExt)
		}
		root = manifest.TreesDir()
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", root, err)
	}
	units := make([]buildpipeline.UnitSource, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), stage.DumpExt) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		units = append(units, buildpipeline.UnitSource{Name: unitName(path), Path: path})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}

func unitName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), stage.DumpExt)
}

// loadTargetCatalog reads the installed ABI descriptors. With --target
// the catalog is narrowed to that one triple, and asking for a triple
// that is not installed is an environment error, not a validation
// finding.
func loadTargetCatalog(env *ore.Environment, triple string) (stage.TargetCatalog, error) {
	configs, err := env.LoadTargets()
	if err != nil {
		return nil, &ore.Error{
			Kind:    ore.ErrSubpathUnreadable,
			Root:    env.Root,
			Source:  env.Source,
			Subpath: "targets",
			Err:     err,
		}
	}
	catalog := make(stage.StaticTargets, len(configs))
	for name, cfg := range configs {
		catalog[name] = stage.TargetDesc{
			Triple:       cfg.Triple,
			CallConv:     cfg.CallConv,
			PointerWidth: cfg.PointerWidth,
		}
	}
	if triple == "" {
		return catalog, nil
	}
	desc, ok := catalog[triple]
	if !ok {
		return nil, &ore.Error{
			Kind:    ore.ErrSubpathMissing,
			Root:    env.Root,
			Source:  env.Source,
			Subpath: filepath.Join("targets", triple+".toml"),
			Err:     fmt.Errorf("target %q is not installed", triple),
		}
	}
	return stage.StaticTargets{triple: desc}, nil
}

func useColor(mode string) bool {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "on":
		return true
	case "off":
		return false
	default:
		return !color.NoColor && isTerminal(os.Stdout)
	}
}
