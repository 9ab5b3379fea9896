package splice

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/report"
)

func renderFixed(s string) RenderFunc {
	return func(entry.Extra) string { return s }
}

func newReport() *report.Report {
	return report.New("GEN", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInsert_SingleMidText(t *testing.T) {
	text := "In the beginning God created"
	extras := []entry.Extra{{Kind: entry.KindFootnote, Offset: 16}}

	got := Insert(text, extras, renderFixed("[1]"), newReport(), "1", "1")
	want := "In the beginning[1] God created"
	if got != want {
		t.Errorf("Insert = %q, want %q", got, want)
	}
}

func TestInsert_MultipleAscendingOffsets(t *testing.T) {
	text := "abcdef"
	extras := []entry.Extra{
		{Kind: entry.KindFootnote, Offset: 2},
		{Kind: entry.KindCrossRef, Offset: 4},
		{Kind: entry.KindFootnote, Offset: 6},
	}
	n := 0
	render := func(entry.Extra) string {
		n++
		return fmt.Sprintf("<%d>", n)
	}

	got := Insert(text, extras, render, newReport(), "1", "1")
	want := "ab<1>cd<2>ef<3>"
	if got != want {
		t.Errorf("Insert = %q, want %q", got, want)
	}
}

// Removing the inserted substrings in insertion order must restore the
// original text, for any offsets the splicer accepted.
func TestInsert_OffsetInvariant(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		offsets []int
	}{
		{"interior", "In the beginning God created", []int{3, 10, 16}},
		{"at start", "abc", []int{0}},
		{"at end", "abc", []int{3}},
		{"adjacent", "abc", []int{1, 1, 2}},
		{"trailing space lost", "abc", []int{4}},
		{"misaligned", "abc", []int{-2, 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var extras []entry.Extra
			for _, off := range tt.offsets {
				extras = append(extras, entry.Extra{Kind: entry.KindFootnote, Offset: off})
			}
			marker := "[note]"
			got := Insert(tt.text, extras, renderFixed(marker), newReport(), "1", "1")

			if len(got) != len(tt.text)+len(marker)*len(extras) {
				t.Fatalf("Spliced length %d, want %d", len(got), len(tt.text)+len(marker)*len(extras))
			}
			stripped := strings.Replace(got, marker, "", len(extras))
			if stripped != tt.text {
				t.Errorf("Stripped = %q, want original %q", stripped, tt.text)
			}
		})
	}
}

func TestInsert_TrailingSpaceLostWarning(t *testing.T) {
	rep := newReport()
	text := "In the beginning God created"
	extras := []entry.Extra{{Kind: entry.KindFootnote, Offset: len(text) + 1}}

	got := Insert(text, extras, renderFixed("[1]"), rep, "1", "1")
	if got != text+"[1]" {
		t.Errorf("Insert = %q, want annotation clamped to end", got)
	}
	if rep.Count(report.TrailingSpaceLost) != 1 {
		t.Errorf("TrailingSpaceLost count = %d, want 1", rep.Count(report.TrailingSpaceLost))
	}
	if rep.Count(report.OffsetMisalignment) != 0 {
		t.Error("Did not expect a misalignment warning for the trailing-space case")
	}
}

func TestInsert_MisalignedWarnsAndKeeps(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"negative", -5, "[1]abc"},
		{"far past end", 99, "abc[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := newReport()
			got := Insert("abc", []entry.Extra{{Offset: tt.offset}}, renderFixed("[1]"), rep, "1", "1")
			if got != tt.want {
				t.Errorf("Insert = %q, want %q", got, tt.want)
			}
			if rep.Count(report.OffsetMisalignment) != 1 {
				t.Errorf("OffsetMisalignment count = %d, want 1", rep.Count(report.OffsetMisalignment))
			}
		})
	}
}

func TestInsert_EmptyRenderSkipped(t *testing.T) {
	got := Insert("abc", []entry.Extra{{Offset: 1}}, renderFixed(""), newReport(), "1", "1")
	if got != "abc" {
		t.Errorf("Insert = %q, want unchanged text", got)
	}
}

func TestInsert_NoExtrasIdempotent(t *testing.T) {
	got := Insert("abc", nil, renderFixed("[1]"), nil, "1", "1")
	if got != "abc" {
		t.Errorf("Insert = %q, want %q", got, "abc")
	}
}
