package ore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// TargetConfig is one `targets/<triple>.toml` descriptor: the ABI contract
// backend artifacts for that triple must agree with.
type TargetConfig struct {
	Triple       string `toml:"triple"`
	CallConv     string `toml:"call_conv"`
	PointerWidth uint8  `toml:"pointer_width"`
}

// LoadTargets reads every *.toml descriptor in the environment's targets
// directory. Listing order is sorted for determinism. A malformed
// descriptor fails the whole load; a half-described target table is worse
// than none.
func (e *Environment) LoadTargets() (map[string]TargetConfig, error) {
	entries, err := os.ReadDir(e.Targets)
	if err != nil {
		return nil, fmt.Errorf("read targets directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	out := make(map[string]TargetConfig, len(names))
	for _, name := range names {
		path := filepath.Join(e.Targets, name)
		var cfg TargetConfig
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("decode target descriptor %s: %w", name, err)
		}
		if cfg.Triple == "" {
			cfg.Triple = strings.TrimSuffix(name, ".toml")
		}
		if cfg.CallConv == "" {
			return nil, fmt.Errorf("target descriptor %s: missing call_conv", name)
		}
		out[cfg.Triple] = cfg
	}
	return out, nil
}
