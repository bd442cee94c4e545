package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded ovie.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the ovie.toml schema.
type Config struct {
	Package   PackageConfig   `toml:"package"`
	Check     CheckConfig     `toml:"check"`
	Bootstrap BootstrapConfig `toml:"bootstrap"`
}

// PackageConfig is the required [package] table.
type PackageConfig struct {
	Name string `toml:"name"`
}

// CheckConfig configures where `ovie check` finds stage-tree dumps.
type CheckConfig struct {
	// Trees is the directory holding .otree dumps, relative to the
	// project root. Defaults to "trees" when unset.
	Trees string `toml:"trees"`
	// Target selects the ABI descriptor the backend stage validates
	// against. Empty means the host target.
	Target string `toml:"target"`
}

// BootstrapConfig configures `ovie verify-bootstrap`.
type BootstrapConfig struct {
	// Source is the compiler source tree, relative to the project root.
	Source string `toml:"source"`
	// Compiler is the trusted Gen0 binary; empty means the binary named
	// ovie on PATH.
	Compiler string `toml:"compiler"`
}

// Load walks up from startDir, finds ovie.toml, and decodes it. The
// second result is false when no manifest exists anywhere above
// startDir, which is not an error.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := decodeConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func decodeConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if cfg.Check.Trees == "" {
		cfg.Check.Trees = "trees"
	}
	return cfg, nil
}

// TreesDir resolves the stage-tree dump directory against the root.
func (m *Manifest) TreesDir() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Check.Trees))
}

// BootstrapSource resolves the compiler source tree against the root.
// Empty when the manifest does not configure bootstrap verification.
func (m *Manifest) BootstrapSource() string {
	if m.Config.Bootstrap.Source == "" {
		return ""
	}
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Bootstrap.Source))
}
