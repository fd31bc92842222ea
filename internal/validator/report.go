package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/presetbridge/internal/filelock"
)

// Entry is one preset's final outcome within a run.
type Entry struct {
	Preset   string        `json:"preset"`
	Category string        `json:"category"`
	Cause    string        `json:"cause,omitempty"`
	Warnings []string      `json:"warnings,omitempty"` // e.g. unrecognized feature flags
	Output   string        `json:"output,omitempty"`   // full diagnostics, kept for UnknownFailure triage
	Elapsed  time.Duration `json:"elapsed_ns"`

	category Category
}

// NewEntry builds an entry for one preset outcome.
func NewEntry(preset string, c Category, cause string) Entry {
	return Entry{
		Preset:   preset,
		Category: c.String(),
		Cause:    cause,
		category: c,
	}
}

// CategoryValue returns the typed category for an entry.
func (e Entry) CategoryValue() Category {
	return e.category
}

// Report aggregates the outcomes of every preset attempted in one run.
// Append is safe for concurrent use; Finalize must be called once, after
// every preset in scope has been attempted, before the report is read.
type Report struct {
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Total    int       `json:"total"`
	Entries  []Entry   `json:"entries"`

	mu        sync.Mutex
	finalized bool
}

// NewReport creates an empty report for a run starting now.
func NewReport() *Report {
	return &Report{Started: time.Now()}
}

// Append records one preset outcome. It must not be called after
// Finalize.
func (r *Report) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		panic("validator: append to finalized report")
	}
	r.Entries = append(r.Entries, e)
}

// Finalize seals the report: entries are stable-sorted by preset name so
// output is deterministic regardless of completion order under
// concurrent execution.
func (r *Report) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.SliceStable(r.Entries, func(i, j int) bool {
		return r.Entries[i].Preset < r.Entries[j].Preset
	})
	r.Total = len(r.Entries)
	r.Finished = time.Now()
	r.finalized = true
}

// Counts returns the number of entries per outcome category.
func (r *Report) Counts() map[Category]int {
	counts := make(map[Category]int)
	for _, e := range r.Entries {
		counts[e.category]++
	}
	return counts
}

// Failing returns the entries whose category is outside the allowed set.
func (r *Report) Failing(allowed map[Category]bool) []Entry {
	var failing []Entry
	for _, e := range r.Entries {
		if !allowed[e.category] {
			failing = append(failing, e)
		}
	}
	return failing
}

// DefaultAllowed is the outcome set that does not fail a run: passing
// presets plus the failure classes expected on a host without every
// vendor toolchain installed. Timeout and UnknownFailure always fail.
func DefaultAllowed() map[Category]bool {
	return map[Category]bool{
		Pass:               true,
		MissingToolchain:   true,
		MissingEnvironment: true,
		MissingGenerator:   true,
	}
}

// RenderSummary writes the human-readable report: per-category counts
// followed by every non-passing preset with its extracted cause.
func (r *Report) RenderSummary(w io.Writer, useColor bool) {
	counts := r.Counts()

	fmt.Fprintf(w, "\nValidation Summary (%d presets, %s)\n", r.Total,
		r.Finished.Sub(r.Started).Round(time.Millisecond))

	for c := Pass; c <= UnknownFailure; c++ {
		n, ok := counts[c]
		if !ok {
			continue
		}
		label := c.String()
		if useColor {
			label = categoryColor(c).Sprint(label)
		}
		fmt.Fprintf(w, "  %-20s %d\n", label, n)
	}

	warned := 0
	for _, e := range r.Entries {
		warned += len(e.Warnings)
	}
	if warned > 0 {
		fmt.Fprintf(w, "  %-20s %d\n", "warnings", warned)
	}

	var listed bool
	for _, e := range r.Entries {
		if e.category == Pass && len(e.Warnings) == 0 {
			continue
		}
		if !listed {
			fmt.Fprintf(w, "\n")
			listed = true
		}
		line := fmt.Sprintf("  %s: %s", e.Preset, e.Category)
		if e.Cause != "" {
			line += fmt.Sprintf(" (%s)", e.Cause)
		}
		fmt.Fprintln(w, line)
		for _, warn := range e.Warnings {
			fmt.Fprintf(w, "    warning: %s\n", warn)
		}
	}
}

func categoryColor(c Category) *color.Color {
	switch c {
	case Pass:
		return color.New(color.FgGreen)
	case MissingToolchain, MissingEnvironment, MissingGenerator:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// WriteJSON persists the machine-readable report atomically, so a
// cancelled or crashed run never leaves a partially-written report
// visible as final.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if err := filelock.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// UnmarshalJSON restores the typed category on entries so reports read
// back from disk classify the same way as freshly built ones.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Entry(a)
	if c, ok := ParseCategory(e.Category); ok {
		e.category = c
	} else {
		e.category = UnknownFailure
	}
	return nil
}

// FormatAllowed renders an allowed-outcome set for display.
func FormatAllowed(allowed map[Category]bool) string {
	var names []string
	for c := Pass; c <= UnknownFailure; c++ {
		if allowed[c] {
			names = append(names, c.String())
		}
	}
	return strings.Join(names, ", ")
}
