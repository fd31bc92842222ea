package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for the
// preset bridge.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presetbridge",
		Short: "Validate legacy TRDP build presets against the CMake description",
		Long: `presetbridge bridges the legacy per-platform make presets and the
modern CMake build description of the TRDP stack.

It parses every legacy preset, translates its toolchain and feature-flag
declarations into CMake cache options, and attempts the configure step for
each one, reporting which presets can be configured in the current
environment and which require additional toolchains or environment
variables.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
