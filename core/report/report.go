// Package report provides the defect taxonomy and per-book accumulation
// for the conversion core. Malformed content never raises an error: every
// defect is recorded as a Warning, logged as it occurs, and summarized
// once per run. Only resource-level failures are Go errors.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Defect identifies a class of recoverable data-quality problem.
type Defect string

// Defect classes.
const (
	// OffsetMisalignment: an extra's recorded offset does not fit the
	// current text; the splicer clamps and keeps the annotation.
	OffsetMisalignment Defect = "offset_misalignment"

	// TrailingSpaceLost: an offset one past end-of-text, caused by a
	// trailing space stripped upstream; clamped to end.
	TrailingSpaceLost Defect = "trailing_space_lost"

	// UnresolvedReference: a note origin could not be resolved to a
	// canonical reference; the literal text is kept.
	UnresolvedReference Defect = "unresolved_reference"

	// SelfReferenceMismatch: a resolved origin disagrees with the
	// current chapter/verse; output is kept.
	SelfReferenceMismatch Defect = "self_reference_mismatch"

	// UnknownMarker: a structural marker the state machine does not
	// recognize; accumulated into a per-run set, reported once.
	UnknownMarker Defect = "unknown_marker"

	// UnhandledNoteField: a note sub-field tag the renderer does not
	// recognize; content appended verbatim.
	UnhandledNoteField Defect = "unhandled_note_field"

	// StructuralAnomaly: a container opened or closed out of expected
	// order and auto-repaired by the precedence rules.
	StructuralAnomaly Defect = "structural_anomaly"

	// MalformedVerseNumber: unparseable verse-number text; a best-effort
	// identifier is synthesized. Critical because downstream identifiers
	// may collide.
	MalformedVerseNumber Defect = "malformed_verse_number"
)

// Level maps each defect class to its log level.
func (d Defect) Level() slog.Level {
	switch d {
	case OffsetMisalignment, TrailingSpaceLost, UnresolvedReference, UnknownMarker, UnhandledNoteField:
		return slog.LevelWarn
	case SelfReferenceMismatch, StructuralAnomaly:
		return slog.LevelError
	case MalformedVerseNumber:
		// Logged at the highest level we have; identifier collisions
		// downstream are the worst recoverable outcome.
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Warning is one recorded defect with its location and detail.
type Warning struct {
	Defect  Defect `json:"defect"`
	Book    string `json:"book,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Verse   string `json:"verse,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func (w Warning) String() string {
	loc := w.Book
	if w.Chapter != "" {
		loc += " " + w.Chapter
		if w.Verse != "" {
			loc += ":" + w.Verse
		}
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", w.Defect, w.Detail)
	}
	return fmt.Sprintf("%s at %s: %s", w.Defect, loc, w.Detail)
}

// Report accumulates warnings for one book. A Report is owned by a single
// worker and needs no locking; merging across books happens in Summary.
type Report struct {
	// Book is the internal code of the book being processed.
	Book string

	// Warnings holds every recorded defect in occurrence order.
	Warnings []Warning

	// unknownMarkers collects markers reported via UnknownMarker so the
	// summary can list each one once instead of per occurrence.
	unknownMarkers map[string]int

	logger *slog.Logger
}

// New creates a Report for one book. A nil logger uses slog.Default.
func New(book string, logger *slog.Logger) *Report {
	if logger == nil {
		logger = slog.Default()
	}
	return &Report{
		Book:           book,
		unknownMarkers: make(map[string]int),
		logger:         logger.With("book", book),
	}
}

// Record logs and accumulates one defect at the given location.
func (r *Report) Record(d Defect, chapter, verse, detail string) {
	w := Warning{Defect: d, Book: r.Book, Chapter: chapter, Verse: verse, Detail: detail}
	r.Warnings = append(r.Warnings, w)
	r.logger.Log(context.Background(), d.Level(), string(d),
		"chapter", chapter, "verse", verse, "detail", detail)
}

// RecordUnknownMarker accumulates an unrecognized marker. Unlike Record,
// it does not log per occurrence; the set is reported once at the end of
// the run so a human can triage format coverage gaps.
func (r *Report) RecordUnknownMarker(marker string) {
	if r.unknownMarkers[marker] == 0 {
		r.Warnings = append(r.Warnings, Warning{Defect: UnknownMarker, Book: r.Book, Detail: marker})
	}
	r.unknownMarkers[marker]++
}

// UnknownMarkers returns the sorted set of unrecognized markers with
// occurrence counts.
func (r *Report) UnknownMarkers() map[string]int {
	out := make(map[string]int, len(r.unknownMarkers))
	for m, n := range r.unknownMarkers {
		out[m] = n
	}
	return out
}

// Count returns the number of recorded warnings of the given class.
func (r *Report) Count(d Defect) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Defect == d {
			n++
		}
	}
	return n
}

// Summary aggregates per-book reports for one conversion run.
type Summary struct {
	mu      sync.Mutex
	byBook  map[string]*Report
	markers map[string]int
}

// NewSummary creates an empty run summary.
func NewSummary() *Summary {
	return &Summary{
		byBook:  make(map[string]*Report),
		markers: make(map[string]int),
	}
}

// Add merges one finished book report. Safe for concurrent use by
// fan-in from per-book workers.
func (s *Summary) Add(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byBook[r.Book] = r
	for m, n := range r.unknownMarkers {
		s.markers[m] += n
	}
}

// WarningCounts returns the per-book warning totals.
func (s *Summary) WarningCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.byBook))
	for code, r := range s.byBook {
		out[code] = len(r.Warnings)
	}
	return out
}

// LogUnknownMarkers reports the accumulated unknown-marker set once.
func (s *Summary) LogUnknownMarkers(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.markers) == 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	markers := make([]string, 0, len(s.markers))
	for m := range s.markers {
		markers = append(markers, m)
	}
	sort.Strings(markers)
	for _, m := range markers {
		logger.Warn("unknown_marker", "marker", m, "count", s.markers[m])
	}
}

// UnknownMarkerSet returns the merged marker set across all books.
func (s *Summary) UnknownMarkerSet() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.markers))
	for m, n := range s.markers {
		out[m] = n
	}
	return out
}
