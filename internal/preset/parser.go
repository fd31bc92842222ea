package preset

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// MalformedPresetError reports a preset file that could not be parsed.
// It identifies the offending line so the file can be fixed without
// re-running the whole batch.
type MalformedPresetError struct {
	Preset string // preset name (file name)
	Line   int    // 1-based line number
	Text   string // offending line text
	Reason string // what was wrong with it
}

// Error implements the error interface for MalformedPresetError.
func (e *MalformedPresetError) Error() string {
	return fmt.Sprintf("preset %s: line %d: %s: %q", e.Preset, e.Line, e.Reason, e.Text)
}

// Scalar keys the parser recognizes directly. Everything else is either a
// boolean-valued flag key or preserved verbatim in Preset.Extra.
const (
	keyTargetOS         = "TARGET_OS"
	keyTargetArch       = "TARGET_ARCH"
	keyToolchainPath    = "TCPATH"
	keyToolchainPrefix  = "TCPREFIX"
	keyToolchainPostfix = "TCPOSTFIX"
	keyDebug            = "DEBUG"
)

// Parse reads one preset file and produces a Preset record.
// name is the preset identity (the file name).
//
// Lines are "KEY = VALUE" declarations. Blank lines and lines starting
// with '#' are ignored. A non-blank line without '=' or with an empty key
// is a MalformedPresetError. Unknown keys are never rejected: boolean
// values outside the known flag set are recorded as unrecognized flags,
// anything else is preserved verbatim.
func Parse(name string, r io.Reader) (*Preset, error) {
	// Variant stays empty unless the preset declares DEBUG; the mapper
	// resolves unset variants against the default table.
	p := &Preset{
		Name:  name,
		Flags: make(map[string]FlagValue),
		Extra: make(map[string]string),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, &MalformedPresetError{
				Preset: name,
				Line:   lineNo,
				Text:   line,
				Reason: "missing '=' in declaration",
			}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return nil, &MalformedPresetError{
				Preset: name,
				Line:   lineNo,
				Text:   line,
				Reason: "empty key",
			}
		}
		if strings.ContainsAny(key, " \t") {
			return nil, &MalformedPresetError{
				Preset: name,
				Line:   lineNo,
				Text:   line,
				Reason: "key contains whitespace",
			}
		}

		applyDeclaration(p, key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read preset %s: %w", name, err)
	}

	sort.Strings(p.UnrecognizedFlags)
	return p, nil
}

// applyDeclaration routes one KEY = VALUE pair into the preset record.
// Later declarations of the same key win, matching make semantics.
func applyDeclaration(p *Preset, key, value string) {
	switch key {
	case keyTargetOS:
		p.TargetOS = value
	case keyTargetArch:
		p.TargetArch = value
	case keyToolchainPath:
		p.ToolchainPath = value
	case keyToolchainPrefix:
		p.ToolchainPrefix = value
	case keyToolchainPostfix:
		p.ToolchainPostfix = value
	case keyDebug:
		if v, ok := parseBool(value); ok && v == FlagOn {
			p.Variant = VariantDebug
		} else {
			p.Variant = VariantRelease
		}
	default:
		if v, ok := parseBool(value); ok {
			if IsKnownFlag(key) {
				p.Flags[key] = v
			} else {
				// Flag-shaped but unknown: surface it, and keep the raw
				// declaration so nothing is lost.
				if !containsString(p.UnrecognizedFlags, key) {
					p.UnrecognizedFlags = append(p.UnrecognizedFlags, key)
				}
				p.Extra[key] = value
			}
			return
		}
		p.Extra[key] = value
	}
}

// parseBool maps the boolean spellings found in legacy presets.
func parseBool(value string) (FlagValue, bool) {
	switch strings.ToUpper(value) {
	case "1", "TRUE", "ON", "YES":
		return FlagOn, true
	case "0", "FALSE", "OFF", "NO":
		return FlagOff, true
	default:
		return FlagUnset, false
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
