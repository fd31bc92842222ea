package invoker

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// GeneratorToolHints maps CMake generator names to the build tool each one
// requires on PATH. The table is best-effort: generators not listed are
// assumed self-contained.
var GeneratorToolHints = map[string]string{
	"Ninja":              "ninja",
	"Ninja Multi-Config": "ninja",
	"Unix Makefiles":     "make",
}

// QueryGenerators asks the local cmake for the generators it supports via
// `cmake -E capabilities`. A missing or broken cmake yields an empty list
// rather than an error so callers can decide how to proceed.
func QueryGenerators(cmakePath string) []string {
	if cmakePath == "" {
		cmakePath = "cmake"
	}
	out, err := exec.Command(cmakePath, "-E", "capabilities").Output()
	if err != nil {
		return nil
	}
	return parseCapabilities(out)
}

func parseCapabilities(data []byte) []string {
	var payload struct {
		Generators []struct {
			Name string `json:"name"`
		} `json:"generators"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	var names []string
	for _, g := range payload.Generators {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ValidateGenerator checks up front that a requested generator is usable:
// the local cmake must list it and its build tool, if any, must be on
// PATH. An empty generator is always valid; cmake then falls back to its
// own default instead of the bridge forcing a choice.
func ValidateGenerator(cmakePath, generator string) error {
	if generator == "" {
		return nil
	}

	available := QueryGenerators(cmakePath)
	if len(available) > 0 && !containsGenerator(available, generator) {
		return fmt.Errorf("generator %q is not available (available: %s)",
			generator, strings.Join(available, ", "))
	}

	if tool, ok := GeneratorToolHints[generator]; ok {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("generator %q requires %q, which was not found in PATH", generator, tool)
		}
	}
	return nil
}

func containsGenerator(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
