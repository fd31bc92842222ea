// Package mapping translates parsed legacy presets into the CMake cache
// option vocabulary understood by the modern build description.
//
// The mapper is the one place default policy lives: explicit preset
// declarations win over platform defaults, which win over global defaults.
// Its output is deterministic so repeated runs configure identically.
package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// Target option names. Every OptionSet produced by the mapper covers this
// vocabulary completely.
const (
	OptTargetOS         = "TRDP_TARGET_OS"
	OptTargetArch       = "TRDP_TARGET_ARCH"
	OptBuildType        = "TRDP_BUILD_TYPE"
	OptToolchainPath    = "TRDP_TOOLCHAIN_PATH"
	OptToolchainPrefix  = "TRDP_TOOLCHAIN_PREFIX"
	OptToolchainPostfix = "TRDP_TOOLCHAIN_POSTFIX"
	OptOutputDir        = "TRDP_OUTPUT_DIR"
)

// FlagOptionPrefix is the deterministic name transform from legacy flag
// keys to target options: MD_SUPPORT becomes TRDP_MD_SUPPORT.
const FlagOptionPrefix = "TRDP_"

// OptionSet maps target-option names to values. It is derived from exactly
// one preset plus the default table and never mutated afterwards.
type OptionSet map[string]string

// Get returns the value for an option name.
func (o OptionSet) Get(name string) string {
	return o[name]
}

// Names returns the option names in sorted order.
func (o OptionSet) Names() []string {
	names := make([]string, 0, len(o))
	for n := range o {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render produces the -D cache arguments for a cmake invocation, sorted by
// option name so identical OptionSets always render byte-identically.
func (o OptionSet) Render() []string {
	args := make([]string, 0, len(o))
	for _, name := range o.Names() {
		args = append(args, fmt.Sprintf("-D%s=%s", name, o[name]))
	}
	return args
}

// Equal reports whether two OptionSets hold the same options and values.
func (o OptionSet) Equal(other OptionSet) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		if other[k] != v {
			return false
		}
	}
	return true
}

// OutputDir derives the build output path segment for a preset from its
// platform tags. It is a pure function: the same three inputs always yield
// the same segment, which keeps builds for different presets from
// colliding under a shared output root.
func OutputDir(targetOS, arch, variant string) string {
	if targetOS == "" {
		targetOS = "unknown"
	}
	if arch == "" {
		arch = "host"
	}
	if variant == "" {
		variant = "release"
	}
	return strings.ToLower(targetOS) + "-" + strings.ToLower(arch) + "-" + strings.ToLower(variant)
}
