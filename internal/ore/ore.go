// Package ore resolves and validates the Ovie Runtime Environment: the
// canonical on-disk directory layout a compiler process depends on. The
// environment is resolved once at process start, is read-only afterwards,
// and gates whether any pipeline stage may execute at all.
package ore

// EnvRootVar is the environment variable naming the root explicitly. It is
// the first discovery source and always wins when set.
const EnvRootVar = "OVIE_HOME"

// MarkerDirName is the project-local marker directory. A `.ovie` directory
// found by walking up from the working directory is itself the root.
const MarkerDirName = ".ovie"

// RequiredSubdirs lists the six subdirectories every valid root must
// contain, in the order they are reported.
var RequiredSubdirs = [...]string{"bin", "std", "aproko", "targets", "config", "logs"}

// Source records which discovery source produced the root.
type Source uint8

const (
	SourceUnknown Source = iota
	// SourceEnvVar means the root came from OVIE_HOME.
	SourceEnvVar
	// SourceMarker means a project-local .ovie directory was found.
	SourceMarker
	// SourceExecutable means the directory containing the running binary.
	SourceExecutable
	// SourceSystem means one of the fixed system-wide install locations.
	SourceSystem
)

func (s Source) String() string {
	switch s {
	case SourceEnvVar:
		return EnvRootVar
	case SourceMarker:
		return "project marker"
	case SourceExecutable:
		return "executable directory"
	case SourceSystem:
		return "system install"
	}
	return "unknown"
}

// Environment is a resolved, validated runtime environment. All paths are
// absolute. The value is never mutated after Resolve returns it; pass it
// by parameter to whatever needs it instead of stashing it in a global.
type Environment struct {
	Root   string
	Source Source

	Bin     string
	Std     string
	Aproko  string
	Targets string
	Config  string
	Logs    string
}

// Subpath returns the absolute path of one required subdirectory by name.
func (e *Environment) Subpath(name string) string {
	switch name {
	case "bin":
		return e.Bin
	case "std":
		return e.Std
	case "aproko":
		return e.Aproko
	case "targets":
		return e.Targets
	case "config":
		return e.Config
	case "logs":
		return e.Logs
	}
	return ""
}
