package report

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestRecordAccumulates(t *testing.T) {
	r := New("GEN", discard())
	r.Record(OffsetMisalignment, "1", "1", "offset 99 beyond text")
	r.Record(UnresolvedReference, "1", "2", "token \"see below\"")

	if len(r.Warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %d", len(r.Warnings))
	}
	if r.Count(OffsetMisalignment) != 1 {
		t.Errorf("Count(OffsetMisalignment) = %d, want 1", r.Count(OffsetMisalignment))
	}
	if got := r.Warnings[0].String(); !strings.Contains(got, "GEN 1:1") {
		t.Errorf("Warning string = %q, want location GEN 1:1", got)
	}
}

func TestUnknownMarkersReportedOnce(t *testing.T) {
	r := New("EST", discard())
	for i := 0; i < 5; i++ {
		r.RecordUnknownMarker("zz9")
	}
	r.RecordUnknownMarker("qq1")

	// One warning entry per distinct marker, counts preserved.
	if r.Count(UnknownMarker) != 2 {
		t.Errorf("Count(UnknownMarker) = %d, want 2", r.Count(UnknownMarker))
	}
	if r.UnknownMarkers()["zz9"] != 5 {
		t.Errorf("zz9 count = %d, want 5", r.UnknownMarkers()["zz9"])
	}
}

func TestSummaryMerge(t *testing.T) {
	s := NewSummary()

	r1 := New("GEN", discard())
	r1.Record(StructuralAnomaly, "1", "", "paragraph already open")
	r1.RecordUnknownMarker("zz9")

	r2 := New("EXO", discard())
	r2.RecordUnknownMarker("zz9")
	r2.RecordUnknownMarker("yy8")

	s.Add(r1)
	s.Add(r2)

	counts := s.WarningCounts()
	if counts["GEN"] != 2 || counts["EXO"] != 2 {
		t.Errorf("WarningCounts = %v", counts)
	}
	markers := s.UnknownMarkerSet()
	if markers["zz9"] != 2 || markers["yy8"] != 1 {
		t.Errorf("UnknownMarkerSet = %v", markers)
	}
}

func TestDefectLevels(t *testing.T) {
	if OffsetMisalignment.Level() != slog.LevelWarn {
		t.Error("Expected offset misalignment at warn level")
	}
	if StructuralAnomaly.Level() != slog.LevelError {
		t.Error("Expected structural anomaly at error level")
	}
	if MalformedVerseNumber.Level() != slog.LevelError {
		t.Error("Expected malformed verse number at error level")
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
