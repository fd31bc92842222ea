package mapping

import (
	"strings"

	"github.com/harrison/presetbridge/internal/preset"
)

// Hard fallbacks when neither the preset nor the default table defines an
// option. These keep the mapper total even against a sparse table.
const (
	fallbackBuildType = "Release"
	fallbackFlag      = "OFF"
)

// Map derives the OptionSet for one preset from the default table.
//
// For every option in the target vocabulary the value is the preset's
// explicit declaration if present, else the platform default for the
// preset's (OS, variant), else the global default. The result is
// deterministic: mapping the same preset against the same table twice
// yields an equal OptionSet.
func Map(p *preset.Preset, table *DefaultTable) OptionSet {
	opts := make(OptionSet)

	opts[OptTargetOS] = p.TargetOS
	opts[OptTargetArch] = p.TargetArch

	buildType := resolveBuildType(p, table)
	opts[OptBuildType] = buildType

	// The effective variant feeds both platform-default lookups and the
	// derived output directory.
	variant := strings.ToLower(buildType)

	opts[OptToolchainPath] = resolveScalar(p.ToolchainPath, OptToolchainPath, p.TargetOS, variant, table, "")
	opts[OptToolchainPrefix] = resolveScalar(p.ToolchainPrefix, OptToolchainPrefix, p.TargetOS, variant, table, "")
	opts[OptToolchainPostfix] = resolveScalar(p.ToolchainPostfix, OptToolchainPostfix, p.TargetOS, variant, table, "")

	for _, key := range preset.KnownFlags {
		name := FlagOptionPrefix + key
		switch p.Flag(key) {
		case preset.FlagOn:
			opts[name] = "ON"
		case preset.FlagOff:
			opts[name] = "OFF"
		default:
			if v, ok := table.Resolve(name, p.TargetOS, variant); ok {
				opts[name] = v
			} else {
				opts[name] = fallbackFlag
			}
		}
	}

	opts[OptOutputDir] = OutputDir(p.TargetOS, p.TargetArch, variant)

	return opts
}

// resolveBuildType maps the preset variant to a CMake build type, falling
// back to the default table when the preset leaves the variant unset.
func resolveBuildType(p *preset.Preset, table *DefaultTable) string {
	switch p.Variant {
	case preset.VariantDebug:
		return "Debug"
	case preset.VariantRelease:
		return "Release"
	}
	if v, ok := table.Resolve(OptBuildType, p.TargetOS, p.Variant); ok {
		return v
	}
	return fallbackBuildType
}

func resolveScalar(explicit, option, targetOS, variant string, table *DefaultTable, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := table.Resolve(option, targetOS, variant); ok {
		return v
	}
	return fallback
}
