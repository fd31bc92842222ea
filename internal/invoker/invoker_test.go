package invoker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/presetbridge/internal/mapping"
)

// fakeCMake writes an executable script standing in for cmake and
// returns its path.
func fakeCMake(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmake")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigureBuildsArguments(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	inv := &Invoker{
		CMakePath: fakeCMake(t, `printf '%s\n' "$@" > `+argsFile+`
echo "-- Configuring done"
exit 0`),
		SourceDir: "/src/trdp",
		BuildRoot: filepath.Join(dir, "build"),
		Generator: "Ninja",
	}

	opts := mapping.OptionSet{
		mapping.OptTargetOS:  "LINUX",
		mapping.OptBuildType: "Release",
	}
	res := inv.Configure(context.Background(), "LINUX", opts)

	if !res.OK() {
		t.Fatalf("Configure failed: exit=%d err=%v output=%s", res.ExitCode, res.Err, res.Output)
	}
	if !strings.Contains(res.Output, "Configuring done") {
		t.Errorf("output not captured: %q", res.Output)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"-S", "/src/trdp",
		"-B", filepath.Join(dir, "build", "LINUX"),
		"-DTRDP_BUILD_TYPE=Release",
		"-DTRDP_TARGET_OS=LINUX",
		"-G", "Ninja",
	}
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConfigureNoGeneratorFlagWhenUnset(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	inv := &Invoker{
		CMakePath: fakeCMake(t, `printf '%s\n' "$@" > `+argsFile+"\nexit 0"),
		SourceDir: "/src/trdp",
		BuildRoot: filepath.Join(dir, "build"),
	}

	res := inv.Configure(context.Background(), "LINUX", mapping.OptionSet{})
	if !res.OK() {
		t.Fatalf("Configure failed: %v", res.Err)
	}
	data, _ := os.ReadFile(argsFile)
	if strings.Contains(string(data), "-G") {
		t.Errorf("unexpected -G flag: %s", data)
	}
}

func TestConfigureCreatesIsolatedBuildDir(t *testing.T) {
	dir := t.TempDir()
	inv := &Invoker{
		CMakePath: fakeCMake(t, "exit 0"),
		SourceDir: "/src/trdp",
		BuildRoot: filepath.Join(dir, "build"),
	}

	inv.Configure(context.Background(), "QNX_ARM", mapping.OptionSet{})
	if _, err := os.Stat(filepath.Join(dir, "build", "QNX_ARM")); err != nil {
		t.Errorf("build directory not created: %v", err)
	}
}

func TestConfigureNonZeroExit(t *testing.T) {
	inv := &Invoker{
		CMakePath: fakeCMake(t, `echo "CMake Error: boom" >&2
exit 3`),
		SourceDir: "/src/trdp",
		BuildRoot: t.TempDir(),
	}

	res := inv.Configure(context.Background(), "LINUX", mapping.OptionSet{})
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.IsStartError() {
		t.Error("a non-zero exit is not a start error")
	}
	if !strings.Contains(res.Output, "CMake Error: boom") {
		t.Errorf("stderr not captured: %q", res.Output)
	}
}

func TestConfigureMissingBinary(t *testing.T) {
	inv := &Invoker{
		CMakePath: filepath.Join(t.TempDir(), "no-such-cmake"),
		SourceDir: "/src/trdp",
		BuildRoot: t.TempDir(),
	}

	res := inv.Configure(context.Background(), "LINUX", mapping.OptionSet{})
	if res.OK() {
		t.Fatal("expected failure")
	}
	if !res.IsStartError() {
		t.Error("missing binary must be a start error")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
}

func TestConfigureTimeout(t *testing.T) {
	inv := &Invoker{
		CMakePath: fakeCMake(t, "sleep 5"),
		SourceDir: "/src/trdp",
		BuildRoot: t.TempDir(),
		Timeout:   50 * time.Millisecond,
	}

	res := inv.Configure(context.Background(), "SLOW", mapping.OptionSet{})
	if !res.TimedOut {
		t.Fatal("expected timeout")
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want DeadlineExceeded via TimeoutError", res.Err)
	}
	var te *TimeoutError
	if !errors.As(res.Err, &te) || te.Preset != "SLOW" {
		t.Errorf("Err = %v, want TimeoutError for SLOW", res.Err)
	}
}

// TestConfigureTimeoutWithLingeringChild: a child process inheriting the
// output pipe (cmake's compiler checks) must not hold Configure past the
// limit once the invocation is killed.
func TestConfigureTimeoutWithLingeringChild(t *testing.T) {
	inv := &Invoker{
		CMakePath: fakeCMake(t, "sleep 8 &\nwait"),
		SourceDir: "/src/trdp",
		BuildRoot: t.TempDir(),
		Timeout:   100 * time.Millisecond,
	}

	start := time.Now()
	res := inv.Configure(context.Background(), "SLOW", mapping.OptionSet{})
	elapsed := time.Since(start)

	if !res.TimedOut {
		t.Fatal("expected timeout")
	}
	if elapsed >= 5*time.Second {
		t.Errorf("Configure blocked for %v after the 100ms limit", elapsed)
	}
}

// TestConfigureOutlivesCallerCancellation: a launched invocation runs to
// completion (or its own timeout) even when the caller's context is
// already cancelled; cancellation only gates new launches.
func TestConfigureOutlivesCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := &Invoker{
		CMakePath: fakeCMake(t, `echo "-- Configuring done"
exit 0`),
		SourceDir: "/src/trdp",
		BuildRoot: t.TempDir(),
	}

	res := inv.Configure(ctx, "LINUX", mapping.OptionSet{})
	if !res.OK() {
		t.Fatalf("cancelled caller killed the invocation: exit=%d err=%v", res.ExitCode, res.Err)
	}
	if !strings.Contains(res.Output, "Configuring done") {
		t.Errorf("output not captured: %q", res.Output)
	}
}

func TestParseCapabilities(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{
			name: "sorted names",
			data: `{"generators":[{"name":"Unix Makefiles"},{"name":"Ninja"}]}`,
			want: []string{"Ninja", "Unix Makefiles"},
		},
		{
			name: "empty names skipped",
			data: `{"generators":[{"name":""},{"name":"Ninja"}]}`,
			want: []string{"Ninja"},
		},
		{
			name: "malformed json",
			data: `not json`,
			want: nil,
		},
		{
			name: "no generators key",
			data: `{"version":{"major":3}}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCapabilities([]byte(tt.data))
			if len(got) != len(tt.want) {
				t.Fatalf("parseCapabilities = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("generator %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateGeneratorEmptyIsValid(t *testing.T) {
	if err := ValidateGenerator("cmake-that-does-not-exist", ""); err != nil {
		t.Errorf("empty generator must always validate: %v", err)
	}
}

func TestValidateGeneratorUnavailable(t *testing.T) {
	cmake := fakeCMake(t, `echo '{"generators":[{"name":"Unix Makefiles"}]}'`)
	err := ValidateGenerator(cmake, "Ninja")
	if err == nil {
		t.Fatal("expected error for unavailable generator")
	}
	if !strings.Contains(err.Error(), "Ninja") || !strings.Contains(err.Error(), "Unix Makefiles") {
		t.Errorf("error does not name generators: %v", err)
	}
}

func TestValidateGeneratorAvailable(t *testing.T) {
	cmake := fakeCMake(t, `echo '{"generators":[{"name":"Watcom WMake"}]}'`)
	// Watcom WMake has no tool hint, so availability alone decides.
	if err := ValidateGenerator(cmake, "Watcom WMake"); err != nil {
		t.Errorf("ValidateGenerator: %v", err)
	}
}
