// Package config loads bridge configuration from YAML with CLI flag
// overrides layered on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryConfig controls the run-history store.
type HistoryConfig struct {
	// Enabled turns on recording of validation runs.
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database the history is written to.
	DBPath string `yaml:"db_path"`

	// KeepRuns caps how many runs are retained; older runs are pruned.
	KeepRuns int `yaml:"keep_runs"`
}

// Config holds the bridge's settings.
type Config struct {
	// PresetDir is the directory of legacy preset files.
	PresetDir string `yaml:"preset_dir"`

	// SourceDir is the CMake source tree to configure.
	SourceDir string `yaml:"source_dir"`

	// BuildRoot stores per-preset build directories.
	BuildRoot string `yaml:"build_root"`

	// DefaultsFile optionally replaces the built-in default table.
	DefaultsFile string `yaml:"defaults_file"`

	// Generator optionally forces a CMake generator.
	Generator string `yaml:"generator"`

	// Workers bounds concurrent configure attempts (0 = sequential).
	Workers int `yaml:"workers"`

	// Timeout is the wall-clock limit per configure attempt.
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Allowed lists outcome categories that do not fail a run. Empty
	// means the built-in default set.
	Allowed []string `yaml:"allowed"`

	// History configures run-history recording.
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		PresetDir: "config",
		SourceDir: ".",
		BuildRoot: ".presetbridge/build",
		Workers:   4,
		Timeout:   5 * time.Minute,
		LogLevel:  "info",
		History: HistoryConfig{
			Enabled:  true,
			DBPath:   ".presetbridge/history.db",
			KeepRuns: 50,
		},
	}
}

// Load reads configuration from path, merging file values over defaults.
// A missing file is not an error: defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Durations are parsed from strings so the YAML reads naturally
	// ("timeout: 2m") instead of as nanosecond integers. Workers is a
	// pointer so an explicit "workers: 0" (sequential) is distinguishable
	// from the key being absent.
	type yamlConfig struct {
		PresetDir    string        `yaml:"preset_dir"`
		SourceDir    string        `yaml:"source_dir"`
		BuildRoot    string        `yaml:"build_root"`
		DefaultsFile string        `yaml:"defaults_file"`
		Generator    string        `yaml:"generator"`
		Workers      *int          `yaml:"workers"`
		Timeout      string        `yaml:"timeout"`
		LogLevel     string        `yaml:"log_level"`
		Allowed      []string      `yaml:"allowed"`
		History      HistoryConfig `yaml:"history"`
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if yc.PresetDir != "" {
		cfg.PresetDir = yc.PresetDir
	}
	if yc.SourceDir != "" {
		cfg.SourceDir = yc.SourceDir
	}
	if yc.BuildRoot != "" {
		cfg.BuildRoot = yc.BuildRoot
	}
	if yc.DefaultsFile != "" {
		cfg.DefaultsFile = yc.DefaultsFile
	}
	if yc.Generator != "" {
		cfg.Generator = yc.Generator
	}
	if yc.Workers != nil {
		cfg.Workers = *yc.Workers
	}
	if yc.Timeout != "" {
		timeout, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yc.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	if len(yc.Allowed) > 0 {
		cfg.Allowed = yc.Allowed
	}

	// History section is merged only when present so an absent section
	// keeps the defaults rather than zeroing them.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if section, ok := raw["history"]; ok && section != nil {
			cfg.History = yc.History
			if cfg.History.DBPath == "" {
				cfg.History.DBPath = DefaultConfig().History.DBPath
			}
			if cfg.History.KeepRuns == 0 {
				cfg.History.KeepRuns = DefaultConfig().History.KeepRuns
			}
		}
	}

	return cfg, nil
}

// LoadFromDir loads configuration from .presetbridge/config.yaml in dir,
// falling back to defaults when absent.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, ".presetbridge", "config.yaml"))
}

// MergeWithFlags overlays non-nil CLI flag values onto the configuration,
// so flags take precedence over the config file.
func (c *Config) MergeWithFlags(presetDir, sourceDir, buildRoot, generator *string, workers *int, timeout *time.Duration) {
	if presetDir != nil {
		c.PresetDir = *presetDir
	}
	if sourceDir != nil {
		c.SourceDir = *sourceDir
	}
	if buildRoot != nil {
		c.BuildRoot = *buildRoot
	}
	if generator != nil {
		c.Generator = *generator
	}
	if workers != nil {
		c.Workers = *workers
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.PresetDir == "" {
		return fmt.Errorf("preset_dir cannot be empty")
	}
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir cannot be empty")
	}
	if c.BuildRoot == "" {
		return fmt.Errorf("build_root cannot be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.KeepRuns < 0 {
			return fmt.Errorf("history.keep_runs must be >= 0, got %d", c.History.KeepRuns)
		}
	}

	return nil
}
