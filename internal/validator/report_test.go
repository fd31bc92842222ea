package validator

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func entry(preset string, c Category, cause string) Entry {
	return NewEntry(preset, c, cause)
}

func TestReportFinalizeSortsByPreset(t *testing.T) {
	r := NewReport()
	r.Append(entry("QNX_ARM", MissingToolchain, "qcc"))
	r.Append(entry("LINUX", Pass, ""))
	r.Append(entry("VXWORKS_PPC", MissingEnvironment, "WIND_BASE"))
	r.Finalize()

	want := []string{"LINUX", "QNX_ARM", "VXWORKS_PPC"}
	if r.Total != len(want) {
		t.Fatalf("Total = %d, want %d", r.Total, len(want))
	}
	for i, name := range want {
		if r.Entries[i].Preset != name {
			t.Errorf("entry %d = %s, want %s", i, r.Entries[i].Preset, name)
		}
	}
}

func TestReportAppendAfterFinalizePanics(t *testing.T) {
	r := NewReport()
	r.Finalize()
	defer func() {
		if recover() == nil {
			t.Error("Append after Finalize did not panic")
		}
	}()
	r.Append(entry("LINUX", Pass, ""))
}

func TestReportCounts(t *testing.T) {
	r := NewReport()
	r.Append(entry("A", Pass, ""))
	r.Append(entry("B", Pass, ""))
	r.Append(entry("C", MissingToolchain, "gcc"))
	r.Append(entry("D", UnknownFailure, "CMake Error"))
	r.Finalize()

	counts := r.Counts()
	if counts[Pass] != 2 || counts[MissingToolchain] != 1 || counts[UnknownFailure] != 1 {
		t.Errorf("Counts() = %v", counts)
	}
}

func TestReportFailing(t *testing.T) {
	r := NewReport()
	r.Append(entry("A", Pass, ""))
	r.Append(entry("B", MissingToolchain, "gcc"))
	r.Append(entry("C", Timeout, "timed out"))
	r.Append(entry("D", UnknownFailure, "CMake Error"))
	r.Append(entry("E", MalformedPreset, "missing '='"))
	r.Finalize()

	failing := r.Failing(DefaultAllowed())
	var names []string
	for _, e := range failing {
		names = append(names, e.Preset)
	}
	want := []string{"C", "D", "E"}
	if len(names) != len(want) {
		t.Fatalf("Failing() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Failing()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestDefaultAllowedExcludesHardFailures(t *testing.T) {
	allowed := DefaultAllowed()
	for _, c := range []Category{Timeout, UnknownFailure, MalformedPreset} {
		if allowed[c] {
			t.Errorf("DefaultAllowed includes %s", c)
		}
	}
	for _, c := range []Category{Pass, MissingToolchain, MissingEnvironment, MissingGenerator} {
		if !allowed[c] {
			t.Errorf("DefaultAllowed excludes %s", c)
		}
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	r := NewReport()
	e := entry("QNX_ARM", MissingEnvironment, "QNX_HOST")
	e.Warnings = []string{"unrecognized feature flag FOO_SUPPORT"}
	e.Elapsed = 1200 * time.Millisecond
	r.Append(e)
	r.Append(entry("LINUX", Pass, ""))
	r.Finalize()

	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var back Report
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if back.Total != 2 || len(back.Entries) != 2 {
		t.Fatalf("round trip lost entries: total=%d len=%d", back.Total, len(back.Entries))
	}

	// Typed categories are restored, so policy checks work on a report
	// read back from disk.
	failing := back.Failing(map[Category]bool{Pass: true})
	if len(failing) != 1 || failing[0].Preset != "QNX_ARM" {
		t.Errorf("Failing on reloaded report = %v", failing)
	}
	if back.Entries[1].CategoryValue() != MissingEnvironment {
		t.Errorf("reloaded category = %s", back.Entries[1].CategoryValue())
	}
}

func TestRenderSummary(t *testing.T) {
	r := NewReport()
	r.Append(entry("LINUX", Pass, ""))
	r.Append(entry("LINUX_ARM7", MissingToolchain, "arm-linux-gnueabihf-gcc"))
	warned := entry("QNX_ARM", Pass, "")
	warned.Warnings = []string{"unrecognized feature flag FOO_SUPPORT"}
	r.Append(warned)
	r.Finalize()

	var buf bytes.Buffer
	r.RenderSummary(&buf, false)
	out := buf.String()

	for _, want := range []string{
		"3 presets",
		"Pass",
		"MissingToolchain",
		"LINUX_ARM7: MissingToolchain (arm-linux-gnueabihf-gcc)",
		"warning: unrecognized feature flag FOO_SUPPORT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	// Clean passes are not itemized.
	if strings.Contains(out, "LINUX: Pass") {
		t.Errorf("summary itemizes a clean pass:\n%s", out)
	}
}

func TestFormatAllowed(t *testing.T) {
	got := FormatAllowed(map[Category]bool{MissingToolchain: true, Pass: true})
	if got != "Pass, MissingToolchain" {
		t.Errorf("FormatAllowed = %q", got)
	}
}
