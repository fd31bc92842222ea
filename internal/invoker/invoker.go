// Package invoker runs the CMake configuration step for one preset's
// OptionSet in an isolated build directory and captures the outcome.
//
// The invoker never builds or links: missing cross-compilers, SDKs and
// environment variables all surface during the configure step, which is
// the only step that needs to run. Failure is returned as data, not as a
// process-fatal error.
package invoker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/harrison/presetbridge/internal/mapping"
)

// DefaultTimeout bounds one configure attempt when the caller does not
// set a limit.
const DefaultTimeout = 5 * time.Minute

// outputWaitDelay bounds how long a killed invocation may keep its output
// pipes open through surviving child processes (compiler checks spawned by
// cmake). Without it, Configure would block far past the timeout whenever
// a child inherits the pipe and hangs.
const outputWaitDelay = 2 * time.Second

// Invoker configures the target build description for one OptionSet at a
// time. Create once, use for many presets; it is safe for concurrent use.
type Invoker struct {
	// CMakePath is the cmake binary to invoke. Defaults to "cmake"
	// (found in PATH).
	CMakePath string

	// SourceDir is the CMake source tree being parameterized.
	SourceDir string

	// BuildRoot holds one build directory per preset. It is never the
	// current directory, so invocations can run in parallel or repeat
	// without collision.
	BuildRoot string

	// Generator optionally forces a CMake generator (-G). Empty lets
	// cmake pick its own default.
	Generator string

	// Timeout is the wall-clock limit per invocation. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// Result captures one configuration attempt. It is immutable once
// returned.
type Result struct {
	Preset   string        // preset identity
	ExitCode int           // cmake exit status; 0 on success
	Output   string        // combined stdout and stderr
	Elapsed  time.Duration // wall-clock time spent
	TimedOut bool          // the per-invocation limit was exceeded
	Err      error         // non-nil when cmake exited non-zero or could not start
}

// OK reports whether the configure step succeeded.
func (r Result) OK() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// Configure attempts the configure step for one preset. The build
// directory is BuildRoot/<preset>, created if needed; its contents remain
// on disk afterwards for inspection. The returned Result is always valid,
// even when the invocation failed.
func (inv *Invoker) Configure(ctx context.Context, presetName string, opts mapping.OptionSet) Result {
	res := Result{Preset: presetName}

	buildDir := filepath.Join(inv.BuildRoot, presetName)
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		res.Err = fmt.Errorf("create build directory: %w", err)
		res.ExitCode = -1
		return res
	}

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// Once launched, only the per-invocation timeout stops an attempt.
	// Cancelling the run stops new launches; in-flight ones finish or hit
	// their own limit, so a killed invocation is never misread as a
	// configure failure.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	args := []string{"-S", inv.SourceDir, "-B", buildDir}
	args = append(args, opts.Render()...)
	if inv.Generator != "" {
		args = append(args, "-G", inv.Generator)
	}

	cmd := exec.CommandContext(runCtx, inv.cmakePath(), args...)
	cmd.WaitDelay = outputWaitDelay

	start := time.Now()
	output, err := cmd.CombinedOutput()
	res.Elapsed = time.Since(start)
	res.Output = string(output)

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		res.Err = &TimeoutError{Preset: presetName, Limit: timeout}
		return res
	}

	if err != nil {
		res.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		return res
	}

	return res
}

func (inv *Invoker) cmakePath() string {
	if inv.CMakePath != "" {
		return inv.CMakePath
	}
	return "cmake"
}

// TimeoutError reports a configure attempt that exceeded its wall-clock
// limit. It unwraps to context.DeadlineExceeded.
type TimeoutError struct {
	Preset string
	Limit  time.Duration
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("preset %s: configure timed out after %v", e.Preset, e.Limit)
}

// Unwrap returns context.DeadlineExceeded for errors.Is support.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsStartError reports whether the result failed before cmake produced
// any diagnostics, typically because the binary itself is missing.
func (r Result) IsStartError() bool {
	if r.Err == nil {
		return false
	}
	var exitErr *exec.ExitError
	return !r.TimedOut && !errors.As(r.Err, &exitErr)
}
