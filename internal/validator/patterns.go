package validator

import (
	"regexp"
	"strings"

	"github.com/harrison/presetbridge/internal/invoker"
)

// Category classifies the outcome of one preset's configuration attempt.
type Category int

const (
	// Pass means the configure step exited successfully.
	Pass Category = iota
	// MissingToolchain means a cross-compiler or toolchain file named by
	// the preset is not installed on this host.
	MissingToolchain
	// MissingEnvironment means a required environment variable is unset.
	MissingEnvironment
	// MissingGenerator means the requested build tool or generator is not
	// available.
	MissingGenerator
	// Timeout means the invocation exceeded its wall-clock limit.
	Timeout
	// MalformedPreset means the legacy preset file could not be parsed.
	MalformedPreset
	// UnknownFailure is the safety net for diagnostics no pattern matched.
	UnknownFailure
)

// String returns the string representation of Category.
func (c Category) String() string {
	switch c {
	case Pass:
		return "Pass"
	case MissingToolchain:
		return "MissingToolchain"
	case MissingEnvironment:
		return "MissingEnvironment"
	case MissingGenerator:
		return "MissingGenerator"
	case Timeout:
		return "Timeout"
	case MalformedPreset:
		return "MalformedPreset"
	default:
		return "UnknownFailure"
	}
}

// ParseCategory maps a category name back to its Category value.
func ParseCategory(s string) (Category, bool) {
	for c := Pass; c <= UnknownFailure; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}
	return UnknownFailure, false
}

// causePattern matches one known class of configure diagnostics. When the
// pattern has a capture group, the first group is extracted as the cause.
type causePattern struct {
	category Category
	re       *regexp.Regexp
}

// knownCausePatterns is the ordered, append-only table of expected
// configure failures. First match wins; anything unmatched falls through
// to UnknownFailure so new toolchain error texts are never misfiled as
// expected.
var knownCausePatterns = []causePattern{
	// Cross-compiler named by the preset is absent from this host.
	{MissingToolchain, regexp.MustCompile(`(?s)The CMAKE_C(?:XX)?_COMPILER:\s*(\S+)\s*(?:is not a full path|was not found)`)},
	{MissingToolchain, regexp.MustCompile(`No CMAKE_C(?:XX)?_COMPILER could be found`)},
	{MissingToolchain, regexp.MustCompile(`Could not find toolchain file:\s*(\S+)`)},
	{MissingToolchain, regexp.MustCompile(`(?i)could not find compiler\s*:?\s*(\S*)`)},

	// Vendor SDK locations are conventionally passed via environment.
	{MissingEnvironment, regexp.MustCompile(`(?i)environment variable\s+"?([A-Za-z_][A-Za-z0-9_]*)"?\s+is not (?:set|defined)`)},
	{MissingEnvironment, regexp.MustCompile(`\$ENV\{([A-Za-z_][A-Za-z0-9_]*)\}\s+is (?:empty|not set)`)},

	// Requested generator or its build tool is unavailable.
	{MissingGenerator, regexp.MustCompile(`CMake was unable to find a build program corresponding to\s*"([^"]+)"`)},
	{MissingGenerator, regexp.MustCompile(`Could not create named generator\s+(\S.*)`)},
}

// Classify maps one InvocationResult to its outcome category, extracting
// the cause for the expected failure classes.
func Classify(res invoker.Result) (Category, string) {
	if res.TimedOut {
		return Timeout, res.Err.Error()
	}
	if res.OK() {
		return Pass, ""
	}
	if res.IsStartError() {
		// cmake never started, so there are no diagnostics to match. A
		// host without cmake is a broken environment, not an expected
		// failure class; stay loud.
		return UnknownFailure, res.Err.Error()
	}

	for _, p := range knownCausePatterns {
		m := p.re.FindStringSubmatch(res.Output)
		if m == nil {
			continue
		}
		cause := ""
		if len(m) > 1 {
			cause = strings.TrimSpace(m[1])
		}
		return p.category, cause
	}

	return UnknownFailure, firstErrorLine(res.Output)
}

// firstErrorLine pulls the first CMake error line out of the diagnostics
// as a short cause; the full text stays on the report entry for triage.
func firstErrorLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "CMake Error") {
			return line
		}
	}
	return ""
}
