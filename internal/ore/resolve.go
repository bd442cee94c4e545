package ore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// systemRoots lists the fixed system-wide install locations, checked in
// order. Overridable in tests.
var systemRoots = defaultSystemRoots()

func defaultSystemRoots() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Ovie"),
			`C:\ovie`,
		}
	default:
		return []string{
			"/usr/local/lib/ovie",
			"/usr/lib/ovie",
			"/opt/ovie",
		}
	}
}

// Resolve discovers and validates the runtime environment, starting the
// marker walk from the current working directory. First matching source
// wins; a winning candidate that fails validation surfaces the error
// rather than falling through to the next source.
func Resolve() (*Environment, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return ResolveFrom(cwd)
}

// ResolveFrom is Resolve with an explicit start directory for the
// project-marker walk.
func ResolveFrom(startDir string) (*Environment, error) {
	root, src, oerr := discover(startDir)
	if oerr != nil {
		return nil, oerr
	}
	return validate(root, src)
}

// discover returns the first matching candidate root without validating
// it. The order is fixed: explicit env var, project marker walk-up,
// executable directory, system locations. No merging across sources.
func discover(startDir string) (string, Source, *Error) {
	if root := os.Getenv(EnvRootVar); root != "" {
		return absOrSelf(root), SourceEnvVar, nil
	}

	if root, ok := findMarkerRoot(startDir); ok {
		return root, SourceMarker, nil
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		if looksLikeRoot(dir) {
			return dir, SourceExecutable, nil
		}
	}

	for _, root := range systemRoots {
		if root == "" {
			continue
		}
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			return root, SourceSystem, nil
		}
	}

	return "", SourceUnknown, &Error{Kind: ErrRootNotFound}
}

// findMarkerRoot walks up from startDir to locate a .ovie directory, the
// way the project manifest walk works.
func findMarkerRoot(startDir string) (string, bool) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, MarkerDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// looksLikeRoot reports whether dir plausibly is an install root: it holds
// at least one required subdirectory. Full validation still applies to the
// winner; this only decides whether the executable directory "matches".
func looksLikeRoot(dir string) bool {
	for _, sub := range RequiredSubdirs {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// validate checks all six required subpaths of root. The first failure is
// returned; there is no fall-through to another candidate.
func validate(root string, src Source) (*Environment, error) {
	for _, sub := range RequiredSubdirs {
		if oerr := checkSubdir(root, src, sub); oerr != nil {
			return nil, oerr
		}
	}
	env := &Environment{
		Root:    root,
		Source:  src,
		Bin:     filepath.Join(root, "bin"),
		Std:     filepath.Join(root, "std"),
		Aproko:  filepath.Join(root, "aproko"),
		Targets: filepath.Join(root, "targets"),
		Config:  filepath.Join(root, "config"),
		Logs:    filepath.Join(root, "logs"),
	}
	return env, nil
}

func checkSubdir(root string, src Source, sub string) *Error {
	path := filepath.Join(root, sub)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &Error{Kind: ErrSubpathMissing, Root: root, Source: src, Subpath: sub}
	case err != nil:
		return &Error{Kind: ErrSubpathUnreadable, Root: root, Source: src, Subpath: sub, Err: err}
	case !info.IsDir():
		return &Error{Kind: ErrSubpathNotDir, Root: root, Source: src, Subpath: sub}
	}

	f, err := os.Open(path) // #nosec G304 -- path derives from the resolved root
	if err != nil {
		return &Error{Kind: ErrSubpathUnreadable, Root: root, Source: src, Subpath: sub, Err: err}
	}
	if err := f.Close(); err != nil {
		return &Error{Kind: ErrSubpathUnreadable, Root: root, Source: src, Subpath: sub, Err: fmt.Errorf("close: %w", err)}
	}
	return nil
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
