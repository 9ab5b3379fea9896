// Package entry defines the normalized line-entry stream that upstream
// format parsers produce and the conversion core consumes. One LineEntry
// per structural or verse-content line; annotations travel out-of-band as
// Extras anchored by character offset.
package entry

// ExtraKind identifies the kind of an out-of-band annotation.
type ExtraKind string

// Extra kind constants.
const (
	KindFootnote ExtraKind = "fn"
	KindCrossRef ExtraKind = "xr"
)

// validExtraKinds is the set of valid extra kinds.
var validExtraKinds = map[ExtraKind]bool{
	KindFootnote: true,
	KindCrossRef: true,
}

// IsValid returns true if the extra kind is valid.
func (k ExtraKind) IsValid() bool {
	return validExtraKinds[k]
}

// Extra is an out-of-band footnote or cross-reference annotation.
// Offset is a byte index into the pre-splice text of the owning
// LineEntry: its CleanText, or Text for entries without one (verse
// content lines carry the two equal).
type Extra struct {
	// Kind is the annotation kind (footnote or cross-reference).
	Kind ExtraKind `json:"kind"`

	// Offset is the byte index into the owning entry's pre-splice text
	// (CleanText, falling back to Text). Invariant: 0 <= Offset <=
	// len(text); violations are a recoverable data-quality defect, not
	// a crash.
	Offset int `json:"offset"`

	// RawMarkup is the note's internal sub-markup
	// (e.g. `+ \fr 1:1 \ft lit. beginnings`).
	RawMarkup string `json:"raw"`

	// CleanText is the markup-free text of the annotation.
	CleanText string `json:"clean,omitempty"`
}

// LineEntry is one normalized line of a book: a structural marker, its
// original (pre-normalization) marker, the line text with and without
// inline formatting, and any extras. Immutable once produced.
type LineEntry struct {
	// Marker is the normalized structural marker (e.g. "p", "v", "v~").
	Marker string `json:"marker"`

	// OriginalMarker is the marker as it appeared in the source.
	OriginalMarker string `json:"original,omitempty"`

	// Text is the line content with inline formatting retained.
	Text string `json:"text,omitempty"`

	// CleanText is the line content with inline formatting stripped.
	CleanText string `json:"clean,omitempty"`

	// Extras are the annotations anchored into Text, in ascending
	// Offset order (guaranteed by upstream; the core must not reorder).
	Extras []Extra `json:"extras,omitempty"`
}

// HasText returns true if the entry carries verse or heading content.
func (e *LineEntry) HasText() bool {
	return e.Text != ""
}

// Book is the per-book unit of processing: an ordered entry stream plus
// the internal book code it belongs to.
type Book struct {
	// Code is the internal three-letter book code (e.g. "GEN", "EST").
	Code string `json:"code"`

	// Entries is the ordered marker stream for the book.
	Entries []LineEntry `json:"entries"`
}
