// Package notes renders footnote and cross-reference sub-markup into a
// structured inline representation plus an optional end-note entry, and
// owns the per-kind sequential ID counters.
package notes

import (
	"fmt"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/ref"
)

// Scope controls the lifetime of the sequential ID counters.
type Scope string

const (
	// ScopePerBook resets counters at every book boundary. Used when the
	// target writes one physical file per book.
	ScopePerBook Scope = "per-book"

	// ScopePerFile keeps one counter stream for all books grouped into a
	// single output document.
	ScopePerFile Scope = "per-file"
)

// Context carries the current location and the sequential note counters.
// One Context per output file (or per book, depending on Scope); owned by
// a single worker, never shared.
type Context struct {
	// Scope is the counter lifetime policy.
	Scope Scope

	// Location is the current book/chapter/verse position, updated by
	// the state machine as the marker stream is consumed.
	Location ref.Location

	counters map[entry.ExtraKind]int
	endnotes []EndNote
}

// NewContext creates a Context with zeroed counters.
func NewContext(scope Scope) *Context {
	return &Context{
		Scope:    scope,
		counters: make(map[entry.ExtraKind]int),
	}
}

// EnterBook positions the context at the start of a book, resetting the
// counters when the scope is per-book.
func (c *Context) EnterBook(code string) {
	c.Location = ref.Location{Book: code}
	if c.Scope == ScopePerBook {
		c.counters = make(map[entry.ExtraKind]int)
	}
}

// SetPosition updates the current chapter and verse.
func (c *Context) SetPosition(chapter, verse string) {
	c.Location.Chapter = chapter
	c.Location.Verse = verse
}

// Next assigns the next sequential ID for the given kind. IDs start at 1
// and increase by exactly 1 regardless of how many note fields fail to
// resolve.
func (c *Context) Next(kind entry.ExtraKind) int {
	c.counters[kind]++
	return c.counters[kind]
}

// Add appends an entry to the end-note accumulator.
func (c *Context) Add(n EndNote) {
	c.endnotes = append(c.endnotes, n)
}

// EndNotes returns the accumulated end-note entries without draining.
func (c *Context) EndNotes() []EndNote {
	return c.endnotes
}

// Drain returns and clears the accumulated end-notes. Per-book emitters
// call this at end of book; combined-file emitters at finalize.
func (c *Context) Drain() []EndNote {
	out := c.endnotes
	c.endnotes = nil
	return out
}

// EndNote is one entry in the trailing notes block of a target document:
// the anchor (origin) and the fully rendered body.
type EndNote struct {
	// Kind is footnote or cross-reference.
	Kind entry.ExtraKind `json:"kind"`

	// ID is the sequential note number within the counter scope.
	ID int `json:"id"`

	// Anchor is the origin text as it will be displayed (e.g. "1:1").
	Anchor string `json:"anchor,omitempty"`

	// OSISRef is the resolved canonical reference, empty if resolution
	// failed.
	OSISRef string `json:"osis_ref,omitempty"`

	// Body is the plain rendered body text.
	Body string `json:"body"`

	// Segments preserves the field structure for emitters that style
	// quoted catch phrases differently from plain body text.
	Segments []Segment `json:"segments,omitempty"`
}

// Label returns a short display label for the end-note ("fn3", "xr1").
func (n EndNote) Label() string {
	return fmt.Sprintf("%s%d", n.Kind, n.ID)
}
