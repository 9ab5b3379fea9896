package structure

import (
	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/report"
	"github.com/FocuswithJustin/Scriptorium/core/verse"
)

// BookMeta carries identity for the book being emitted.
type BookMeta struct {
	// Code is the uppercase three-letter book code, e.g. "GEN".
	Code string
	// OSIS is the OSIS work abbreviation, e.g. "Gen".
	OSIS string
	// Name is the assumed English name, e.g. "Genesis".
	Name string
	// Title is the running header from the source, if any.
	Title string

	// Rep receives data-quality defects found while formatting.
	Rep *report.Report
}

// Attrs carries the attributes of a container being opened: the
// computed title text, a style level where the source marker carries
// one (q1 through q4, io1/io2), and any resolved section-reference
// text.
type Attrs struct {
	Title string
	Level int
	Ref   string
}

// Emitter receives the linear event stream for one book. Every
// OpenContainer is matched by a CloseContainer of the same type in
// LIFO order, every StartVerse by an EndVerse, and every StartChapter
// by an EndChapter. Inline note markup is formatted by the emitter
// itself through InlineNote so offset arithmetic sees the final
// rendered length.
type Emitter interface {
	// BeginBook is called once before any other event.
	BeginBook(meta BookMeta) error

	OpenContainer(t ContainerType, attrs Attrs)
	CloseContainer(t ContainerType)

	StartChapter(number, osisRef string)
	EndChapter(osisRef string)

	StartVerse(m verse.Milestone)
	EndVerse(m verse.Milestone)

	// Heading emits a non-container heading line: main titles,
	// section references, descriptive titles, speaker lines.
	Heading(marker string, level int, text string)

	// ListItem emits one item of the innermost open List.
	ListItem(level int, text string)

	// Text emits verse or paragraph body text with inline note
	// markup already spliced in.
	Text(s string)

	// Break emits an intentional blank line.
	Break()

	// InlineNote formats a rendered note for inline placement and
	// returns the exact string spliced into the surrounding text.
	InlineNote(r *notes.Rendered) string

	// EndBook is called once after all containers are closed.
	// Accumulated end-notes are handed over for back-matter
	// rendering where the target dialect wants them.
	EndBook(endnotes []notes.EndNote) error
}
