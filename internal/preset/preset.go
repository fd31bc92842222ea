// Package preset discovers and parses legacy TRDP make presets.
//
// Each preset is a flat file of KEY = VALUE declarations describing one
// platform/toolchain combination (target OS, architecture, cross toolchain
// and feature flags). Presets are parsed once per validation run and are
// immutable afterwards.
package preset

import (
	"fmt"
	"sort"
	"strings"
)

// FlagValue is the tri-state value of a legacy feature flag.
type FlagValue int

const (
	// FlagUnset means the preset does not declare the flag at all.
	FlagUnset FlagValue = iota
	// FlagOff means the flag is declared disabled (0, FALSE, OFF, NO).
	FlagOff
	// FlagOn means the flag is declared enabled (1, TRUE, ON, YES).
	FlagOn
)

// String returns the string representation of FlagValue.
func (v FlagValue) String() string {
	switch v {
	case FlagOn:
		return "on"
	case FlagOff:
		return "off"
	default:
		return "unset"
	}
}

// Variant constants for the build variant tag.
const (
	VariantDebug   = "debug"
	VariantRelease = "release"
)

// Preset is the parsed form of one legacy preset file.
// Identity is the file name, unique within a preset directory.
type Preset struct {
	Name string // file name, e.g. "LINUX_X86_64"

	TargetOS   string // e.g. "LINUX", "VXWORKS"
	TargetArch string // e.g. "X86_64", "PPC"; empty means host
	Variant    string // "debug" or "release"

	// Cross toolchain description. All three are optional; empty values
	// mean the host default toolchain.
	ToolchainPath    string
	ToolchainPrefix  string // e.g. "arm-linux-gnueabihf-"
	ToolchainPostfix string

	// Flags holds recognized feature flags keyed by legacy name
	// (e.g. "MD_SUPPORT"). Absent keys are FlagUnset.
	Flags map[string]FlagValue

	// UnrecognizedFlags lists keys that look like feature flags (boolean
	// values) but are not in the known set. They are surfaced as warnings
	// rather than silently dropped.
	UnrecognizedFlags []string

	// Extra preserves unknown non-flag declarations verbatim for
	// forward-compatibility with the evolving legacy format.
	Extra map[string]string
}

// KnownFlags is the fixed set of legacy feature-flag keys the bridge maps
// into the CMake option vocabulary. Keys outside this set with boolean
// values are reported as unrecognized.
var KnownFlags = []string{
	"MD_SUPPORT",
	"TSN_SUPPORT",
	"SOA_SUPPORT",
	"XML_SUPPORT",
	"HIGH_PERF_INDEXED",
}

var knownFlagSet = func() map[string]bool {
	m := make(map[string]bool, len(KnownFlags))
	for _, k := range KnownFlags {
		m[k] = true
	}
	return m
}()

// IsKnownFlag reports whether key is in the fixed feature-flag set.
func IsKnownFlag(key string) bool {
	return knownFlagSet[key]
}

// Flag returns the tri-state value for a known flag key.
func (p *Preset) Flag(key string) FlagValue {
	if p.Flags == nil {
		return FlagUnset
	}
	return p.Flags[key]
}

// HasToolchain reports whether the preset declares any cross-toolchain
// field. A preset without toolchain fields builds with the host default.
func (p *Preset) HasToolchain() bool {
	return p.ToolchainPath != "" || p.ToolchainPrefix != "" || p.ToolchainPostfix != ""
}

// Summary returns a one-line human description of the preset.
func (p *Preset) Summary() string {
	var b strings.Builder
	variant := p.Variant
	if variant == "" {
		variant = VariantRelease
	}
	fmt.Fprintf(&b, "%s/%s %s", p.TargetOS, archOrHost(p.TargetArch), variant)
	if p.ToolchainPrefix != "" {
		fmt.Fprintf(&b, " toolchain=%s", p.ToolchainPrefix)
	}
	var on []string
	for _, k := range KnownFlags {
		if p.Flag(k) == FlagOn {
			on = append(on, k)
		}
	}
	if len(on) > 0 {
		sort.Strings(on)
		fmt.Fprintf(&b, " +%s", strings.Join(on, ",+"))
	}
	return b.String()
}

func archOrHost(arch string) string {
	if arch == "" {
		return "host"
	}
	return arch
}
