package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harrison/presetbridge/internal/mapping"
	"github.com/harrison/presetbridge/internal/preset"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <preset>",
		Short: "Show the CMake options a preset maps to",
		Long: `Parse one preset and print the full option set it maps to, exactly as
it would be passed to the configure step. Useful for verifying default
resolution before running a full check.`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .presetbridge/config.yaml)")
	cmd.Flags().String("preset-dir", "", "Directory of legacy preset files")
	cmd.Flags().String("defaults", "", "YAML default table overriding the built-in one")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("preset-dir") {
		cfg.PresetDir, _ = cmd.Flags().GetString("preset-dir")
	}
	if cmd.Flags().Changed("defaults") {
		cfg.DefaultsFile, _ = cmd.Flags().GetString("defaults")
	}

	store := preset.NewStore(cfg.PresetDir)
	p, err := store.Load(args[0])
	if err != nil {
		return err
	}

	defaults, err := mapping.LoadDefaults(cfg.DefaultsFile)
	if err != nil {
		return err
	}
	opts := mapping.Map(p, defaults)

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n", p.Name, p.Summary())
	for _, name := range opts.Names() {
		fmt.Fprintf(cmd.OutOrStdout(), "  -D%s=%s\n", name, opts[name])
	}

	if len(p.UnrecognizedFlags) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nUnrecognized feature flags (passed through, not mapped):\n")
		for _, flag := range p.UnrecognizedFlags {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", flag)
		}
	}
	// Unrecognized flags also appear in Extra; list only the rest here.
	var keys []string
	for k := range p.Extra {
		if !isUnrecognized(p, k) {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		fmt.Fprintf(cmd.OutOrStdout(), "\nLegacy-only declarations (ignored for mapping):\n")
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", k, p.Extra[k])
		}
	}
	return nil
}

func isUnrecognized(p *preset.Preset, key string) bool {
	for _, f := range p.UnrecognizedFlags {
		if f == key {
			return true
		}
	}
	return false
}
