package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/presetbridge/internal/config"
	"github.com/harrison/presetbridge/internal/filelock"
	"github.com/harrison/presetbridge/internal/history"
	"github.com/harrison/presetbridge/internal/invoker"
	"github.com/harrison/presetbridge/internal/logger"
	"github.com/harrison/presetbridge/internal/mapping"
	"github.com/harrison/presetbridge/internal/preset"
	"github.com/harrison/presetbridge/internal/validator"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [preset...]",
		Short: "Attempt to configure every preset through CMake",
		Long: `Attempt the CMake configure step for every legacy preset (or the named
subset) and report which ones can be configured in this environment.

Each preset gets its own build directory under the build root, so attempts
run in parallel and never touch the current directory. No build or link
step is performed: missing cross-compilers, SDKs and environment variables
all surface during configuration.

Failures matching a known cause (missing toolchain, environment variable
or generator) are expected on hosts without every vendor SDK and do not
fail the run by default. Timeouts and unclassified failures always do.

Configuration is loaded from .presetbridge/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Check every preset in the default preset directory
  presetbridge check

  # Check two specific presets with verbose progress
  presetbridge check LINUX_X86_64 VXWORKS_PPC --verbose

  # Force the Ninja generator and a clean build root
  presetbridge check --generator Ninja --clean

  # Write a machine-readable report for downstream tooling
  presetbridge check --json report.json`,
		RunE: runCheck,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .presetbridge/config.yaml)")
	cmd.Flags().String("preset-dir", "", "Directory of legacy preset files")
	cmd.Flags().String("source-dir", "", "CMake source tree to configure")
	cmd.Flags().String("build-root", "", "Directory for per-preset build directories")
	cmd.Flags().String("defaults", "", "YAML default table overriding the built-in one")
	cmd.Flags().String("generator", "", "CMake generator to force (e.g. Ninja)")
	cmd.Flags().Int("workers", -1, "Concurrent configure attempts (-1 = use config)")
	cmd.Flags().String("timeout", "", "Wall-clock limit per configure attempt (e.g. 2m)")
	cmd.Flags().Bool("clean", false, "Delete the build root before running")
	cmd.Flags().String("json", "", "Write the machine-readable report to this path")
	cmd.Flags().StringSlice("allow", nil, "Outcome categories that do not fail the run")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().Bool("verbose", false, "Show per-preset progress")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Overlay CLI flag values onto the config.
	var presetDirPtr, sourceDirPtr, buildRootPtr, generatorPtr *string
	var workersPtr *int
	var timeoutPtr *time.Duration

	if cmd.Flags().Changed("preset-dir") {
		v, _ := cmd.Flags().GetString("preset-dir")
		presetDirPtr = &v
	}
	if cmd.Flags().Changed("source-dir") {
		v, _ := cmd.Flags().GetString("source-dir")
		sourceDirPtr = &v
	}
	if cmd.Flags().Changed("build-root") {
		v, _ := cmd.Flags().GetString("build-root")
		buildRootPtr = &v
	}
	if cmd.Flags().Changed("generator") {
		v, _ := cmd.Flags().GetString("generator")
		generatorPtr = &v
	}
	if cmd.Flags().Changed("workers") {
		v, _ := cmd.Flags().GetInt("workers")
		workersPtr = &v
	}
	if cmd.Flags().Changed("timeout") {
		s, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", s, err)
		}
		timeoutPtr = &timeout
	}
	cfg.MergeWithFlags(presetDirPtr, sourceDirPtr, buildRootPtr, generatorPtr, workersPtr, timeoutPtr)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A bad generator request should fail before any preset is attempted,
	// not once per preset.
	if err := invoker.ValidateGenerator("", cfg.Generator); err != nil {
		return err
	}

	allowed, err := allowedOutcomes(cmd, cfg)
	if err != nil {
		return err
	}

	// cmake itself must exist before any preset is attempted; a host
	// without it would otherwise fail once per preset.
	if _, err := exec.LookPath("cmake"); err != nil {
		return fmt.Errorf("cmake not found in PATH: %w", err)
	}

	if clean, _ := cmd.Flags().GetBool("clean"); clean {
		if err := os.RemoveAll(cfg.BuildRoot); err != nil {
			return fmt.Errorf("clean build root: %w", err)
		}
	}

	// One run per build root at a time; concurrent runs would interleave
	// cmake caches.
	lock, err := filelock.NewRunLock(cfg.BuildRoot + ".lock")
	if err != nil {
		return err
	}
	acquired, err := lock.TryAcquire()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("another validation run is already using build root %s", cfg.BuildRoot)
	}
	defer lock.Release()

	level := logger.ParseLevel(cfg.LogLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logger.LevelDebug
	}
	log := logger.New(cmd.OutOrStdout(), level)

	defaults, err := mapping.LoadDefaults(cfg.DefaultsFile)
	if err != nil {
		return err
	}

	runner := &validator.Runner{
		Store:    preset.NewStore(cfg.PresetDir),
		Defaults: defaults,
		Invoker: &invoker.Invoker{
			SourceDir: cfg.SourceDir,
			BuildRoot: cfg.BuildRoot,
			Generator: cfg.Generator,
			Timeout:   cfg.Timeout,
		},
		Workers: cfg.Workers,
		Logger:  log,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx, args)
	if err != nil {
		return fmt.Errorf("validation run failed: %w", err)
	}

	report.RenderSummary(cmd.OutOrStdout(), logger.IsTerminal(cmd.OutOrStdout()))

	if jsonPath, _ := cmd.Flags().GetString("json"); jsonPath != "" {
		if err := report.WriteJSON(jsonPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to: %s\n", jsonPath)
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); cfg.History.Enabled && !noHistory {
		if err := recordHistory(cfg, report, allowed); err != nil {
			// History is bookkeeping; a broken database must not turn a
			// clean validation run into a failure.
			log.Warnf("failed to record run history: %v", err)
		}
	}

	if failing := report.Failing(allowed); len(failing) > 0 {
		return fmt.Errorf("%d preset(s) outside the allowed outcome set (%s)",
			len(failing), validator.FormatAllowed(allowed))
	}
	return nil
}

// loadConfig resolves the --config flag against the default location.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// allowedOutcomes resolves the allowed outcome set from flags and config.
// Timeout and UnknownFailure can never be allowed: they indicate either a
// hung configure step or a broken option mapping, and must stay loud.
func allowedOutcomes(cmd *cobra.Command, cfg *config.Config) (map[validator.Category]bool, error) {
	names := cfg.Allowed
	if cmd.Flags().Changed("allow") {
		names, _ = cmd.Flags().GetStringSlice("allow")
	}
	if len(names) == 0 {
		return validator.DefaultAllowed(), nil
	}

	allowed := map[validator.Category]bool{validator.Pass: true}
	for _, name := range names {
		c, ok := validator.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown outcome category %q (known: %s)",
				name, validator.FormatAllowed(allAllowable()))
		}
		if c == validator.Timeout || c == validator.UnknownFailure {
			return nil, fmt.Errorf("outcome %s cannot be allowed", c)
		}
		allowed[c] = true
	}
	return allowed, nil
}

func allAllowable() map[validator.Category]bool {
	return map[validator.Category]bool{
		validator.Pass:               true,
		validator.MissingToolchain:   true,
		validator.MissingEnvironment: true,
		validator.MissingGenerator:   true,
		validator.MalformedPreset:    true,
	}
}

func recordHistory(cfg *config.Config, report *validator.Report, allowed map[validator.Category]bool) error {
	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.RecordRun(report, allowed); err != nil {
		return err
	}
	return store.Prune(cfg.History.KeepRuns)
}
