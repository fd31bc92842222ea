package mapping

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var builtinDefaultsYAML []byte

// PlatformDefaults carries option defaults for one (os, variant)
// combination. An empty Variant matches every variant of the OS.
type PlatformDefaults struct {
	OS      string            `yaml:"os"`
	Variant string            `yaml:"variant"`
	Options map[string]string `yaml:"options"`
}

// DefaultTable is the fixed default table the mapper resolves against.
// It is versioned alongside the bridge; a user-supplied YAML file can
// replace the built-in copy without touching the parser or mapper.
type DefaultTable struct {
	Global    map[string]string  `yaml:"global"`
	Platforms []PlatformDefaults `yaml:"platforms"`
}

// BuiltinDefaults parses the default table embedded in the binary.
func BuiltinDefaults() (*DefaultTable, error) {
	return parseDefaults(builtinDefaultsYAML)
}

// LoadDefaults reads a default table from a YAML file. An empty path
// falls back to the built-in table.
func LoadDefaults(path string) (*DefaultTable, error) {
	if path == "" {
		return BuiltinDefaults()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read default table: %w", err)
	}
	table, err := parseDefaults(data)
	if err != nil {
		return nil, fmt.Errorf("parse default table %s: %w", path, err)
	}
	return table, nil
}

func parseDefaults(data []byte) (*DefaultTable, error) {
	var table DefaultTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("unmarshal default table: %w", err)
	}
	if table.Global == nil {
		table.Global = make(map[string]string)
	}
	return &table, nil
}

// Resolve returns the default value for an option under the three-tier
// policy: the most specific platform entry (os + variant before os alone)
// wins over the global default. The second return reports whether any
// tier defined the option.
func (t *DefaultTable) Resolve(option, targetOS, variant string) (string, bool) {
	// os + variant entries take precedence over os-only entries, in the
	// order they appear in the table.
	for _, p := range t.Platforms {
		if p.OS != targetOS || p.Variant == "" || p.Variant != variant {
			continue
		}
		if v, ok := p.Options[option]; ok {
			return v, true
		}
	}
	for _, p := range t.Platforms {
		if p.OS != targetOS || p.Variant != "" {
			continue
		}
		if v, ok := p.Options[option]; ok {
			return v, true
		}
	}
	v, ok := t.Global[option]
	return v, ok
}
