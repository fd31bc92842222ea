package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/presetbridge/internal/preset"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the legacy presets and what they declare",
		Long: `List every preset in the preset directory with its parsed platform,
variant, toolchain and enabled feature flags. Malformed presets are listed
with their parse error instead of being hidden.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .presetbridge/config.yaml)")
	cmd.Flags().String("preset-dir", "", "Directory of legacy preset files")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("preset-dir") {
		cfg.PresetDir, _ = cmd.Flags().GetString("preset-dir")
	}

	store := preset.NewStore(cfg.PresetDir)
	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No presets found in %s\n", cfg.PresetDir)
		return nil
	}

	for _, name := range names {
		p, err := store.Load(name)
		if err != nil {
			var malformed *preset.MalformedPresetError
			if errors.As(err, &malformed) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-28s MALFORMED: %s (line %d)\n",
					name, malformed.Reason, malformed.Line)
				continue
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-28s %s\n", name, p.Summary())
		for _, flag := range p.UnrecognizedFlags {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-28s warning: unrecognized feature flag %s\n", "", flag)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d preset(s) in %s\n", len(names), cfg.PresetDir)
	return nil
}
