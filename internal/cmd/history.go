package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/presetbridge/internal/history"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded validation runs",
		Long: `Without arguments, list recent validation runs newest first. With a
run id, show that run's per-preset outcomes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .presetbridge/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		return showRun(cmd, store, args[0])
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s  %d presets, %d passed, %d failing\n",
			r.ID, r.Started.Format(time.DateTime), r.Total, r.Passed, r.Failed)
	}
	return nil
}

func showRun(cmd *cobra.Command, store *history.Store, runID string) error {
	entries, err := store.RunEntries(runID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no run with id %s", runID)
	}

	for _, e := range entries {
		line := fmt.Sprintf("  %-28s %s", e.Preset, e.Category)
		if e.Cause != "" {
			line += fmt.Sprintf(" (%s)", e.Cause)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
