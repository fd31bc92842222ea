package validator

import (
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/harrison/presetbridge/internal/invoker"
)

// exitError returns a real *exec.ExitError so failed results are
// distinguishable from results where cmake never started.
func exitError(t *testing.T) error {
	t.Helper()
	err := exec.Command("false").Run()
	if err == nil {
		t.Fatal("expected false to exit non-zero")
	}
	return err
}

const missingCompilerOutput = `-- The C compiler identification is unknown
CMake Error at CMakeLists.txt:12 (project):
  The CMAKE_C_COMPILER:

    arm-linux-gnueabihf-gcc

  is not a full path and was not found in the PATH.
`

const missingEnvOutput = `CMake Error at cmake/vxworks.cmake:8 (message):
  Environment variable WIND_BASE is not set.  Source the VxWorks
  development environment before configuring.
`

const missingGeneratorOutput = `CMake Error: CMake was unable to find a build program corresponding to "Ninja".  CMAKE_MAKE_PROGRAM is not set.
`

const unknownOutput = `CMake Error at CMakeLists.txt:40 (add_subdirectory):
  add_subdirectory given source "src/vos" which is not an existing directory.
`

// TestClassify covers the ordered first-match classification policy.
func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		result    invoker.Result
		wantCat   Category
		wantCause string
	}{
		{
			name:    "pass",
			result:  invoker.Result{Preset: "LINUX", ExitCode: 0},
			wantCat: Pass,
		},
		{
			name: "missing cross compiler",
			result: invoker.Result{
				Preset:   "LINUX_ARM7",
				ExitCode: 1,
				Output:   missingCompilerOutput,
				Err:      exitError(t),
			},
			wantCat:   MissingToolchain,
			wantCause: "arm-linux-gnueabihf-gcc",
		},
		{
			name: "missing environment variable",
			result: invoker.Result{
				Preset:   "VXWORKS_PPC",
				ExitCode: 1,
				Output:   missingEnvOutput,
				Err:      exitError(t),
			},
			wantCat:   MissingEnvironment,
			wantCause: "WIND_BASE",
		},
		{
			name: "missing generator",
			result: invoker.Result{
				Preset:   "LINUX_X86_64",
				ExitCode: 1,
				Output:   missingGeneratorOutput,
				Err:      exitError(t),
			},
			wantCat:   MissingGenerator,
			wantCause: "Ninja",
		},
		{
			name: "unclassified failure falls through",
			result: invoker.Result{
				Preset:   "QNX_ARM",
				ExitCode: 1,
				Output:   unknownOutput,
				Err:      exitError(t),
			},
			wantCat: UnknownFailure,
		},
		{
			name: "timeout",
			result: invoker.Result{
				Preset:   "SLOW",
				ExitCode: -1,
				TimedOut: true,
				Err:      &invoker.TimeoutError{Preset: "SLOW", Limit: time.Minute},
			},
			wantCat: Timeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, cause := Classify(tt.result)
			if cat != tt.wantCat {
				t.Errorf("Classify() category = %s, want %s", cat, tt.wantCat)
			}
			if tt.wantCause != "" && cause != tt.wantCause {
				t.Errorf("Classify() cause = %q, want %q", cause, tt.wantCause)
			}
		})
	}
}

// TestClassifyOrderedFirstMatchWins: output containing both a toolchain
// and an environment diagnostic classifies as the toolchain, which is
// earlier in the pattern table.
func TestClassifyOrderedFirstMatchWins(t *testing.T) {
	res := invoker.Result{
		Preset:   "X",
		ExitCode: 1,
		Output:   missingCompilerOutput + missingEnvOutput,
		Err:      exitError(t),
	}
	cat, cause := Classify(res)
	if cat != MissingToolchain {
		t.Errorf("category = %s, want MissingToolchain (first match wins)", cat)
	}
	if cause != "arm-linux-gnueabihf-gcc" {
		t.Errorf("cause = %q, want arm-linux-gnueabihf-gcc", cause)
	}
}

// TestClassifyUnknownKeepsErrorLine: the short cause for an unknown
// failure is the first CMake error line.
func TestClassifyUnknownKeepsErrorLine(t *testing.T) {
	res := invoker.Result{
		Preset:   "X",
		ExitCode: 1,
		Output:   unknownOutput,
		Err:      exitError(t),
	}
	_, cause := Classify(res)
	if cause == "" {
		t.Error("cause is empty, want the first CMake Error line")
	}
}

// TestClassifyStartError: cmake itself failing to start produces no
// diagnostics to match, so it must stay in the always-failing class
// instead of passing as an expected outcome.
func TestClassifyStartError(t *testing.T) {
	res := invoker.Result{
		Preset:   "X",
		ExitCode: -1,
		Err:      errors.New(`exec: "cmake": executable file not found in $PATH`),
	}
	cat, cause := Classify(res)
	if cat != UnknownFailure {
		t.Errorf("category = %s, want UnknownFailure", cat)
	}
	if cause == "" {
		t.Error("cause is empty, want the start error")
	}
}

func TestParseCategoryRoundTrip(t *testing.T) {
	for c := Pass; c <= UnknownFailure; c++ {
		got, ok := ParseCategory(c.String())
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseCategory("NotACategory"); ok {
		t.Error("ParseCategory accepted an unknown name")
	}
}
