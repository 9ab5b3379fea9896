// Package ref provides canonical scripture references, the origin-token
// grammar used by footnote and cross-reference anchors, and the book-code
// table shared by all emitters.
package ref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Ref is a canonical scripture reference.
type Ref struct {
	// Book is the OSIS book ID (e.g., "Gen", "Matt", "1John").
	Book string `json:"book"`

	// Chapter is the chapter number (1-indexed, 0 for whole-book references).
	Chapter int `json:"chapter,omitempty"`

	// Verse is the verse number (1-indexed, 0 for whole-chapter references).
	Verse int `json:"verse,omitempty"`

	// VerseEnd is the ending verse for ranges (optional).
	VerseEnd int `json:"verse_end,omitempty"`
}

// originGrammar is the participle grammar for note origin tokens.
// Origins are loose vernacular anchors: "1:1", "2:2:", "Gen 1:1",
// "3:16-17". The book part is optional because the renderer prepends
// the vernacular abbreviation before resolving.
//
//nolint:govet // participle grammar tags are not standard struct tags
type originGrammar struct {
	Book      *originBook `parser:"@@?"`
	Chapter   int         `parser:"@Int"`
	VersePart *originLeaf `parser:"( ':' @@ )? ':'?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type originBook struct {
	Prefix string `parser:"@Int?"`
	Name   string `parser:"@Ident"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type originLeaf struct {
	Verse int  `parser:"@Int"`
	Range *int `parser:"( '-' @Int )?"`
}

var originLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z.]*`},
	{Name: "Punct", Pattern: `[:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var originParser = participle.MustBuild[originGrammar](
	participle.Lexer(originLexer),
	participle.Elide("Whitespace"),
)

// ParseOrigin parses an origin token into a Ref. The book name, if
// present, is kept verbatim (vernacular); mapping it to an OSIS ID is
// the resolver's job. Returns an error for tokens with no recognizable
// chapter reference; callers treat that as an unresolved (loggable)
// outcome, never a failure.
func ParseOrigin(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty origin token")
	}

	parsed, err := originParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid origin token %q: %w", s, err)
	}

	r := &Ref{Chapter: parsed.Chapter}
	if parsed.Book != nil {
		r.Book = strings.TrimSuffix(parsed.Book.Prefix+parsed.Book.Name, ".")
	}
	if parsed.VersePart != nil {
		r.Verse = parsed.VersePart.Verse
		if parsed.VersePart.Range != nil {
			r.VerseEnd = *parsed.VersePart.Range
		}
	}
	return r, nil
}

// OSISID returns the dotted identifier form (e.g. "Gen.1.1",
// "Esth.9.16-Esth.9.17" for ranges).
func (r *Ref) OSISID() string {
	var sb strings.Builder
	sb.WriteString(r.Book)
	if r.Chapter > 0 {
		sb.WriteString(".")
		sb.WriteString(strconv.Itoa(r.Chapter))
		if r.Verse > 0 {
			sb.WriteString(".")
			sb.WriteString(strconv.Itoa(r.Verse))
			if r.VerseEnd > 0 {
				sb.WriteString("-")
				sb.WriteString(r.Book)
				sb.WriteString(".")
				sb.WriteString(strconv.Itoa(r.Chapter))
				sb.WriteString(".")
				sb.WriteString(strconv.Itoa(r.VerseEnd))
			}
		}
	}
	return sb.String()
}

// String returns the OSIS ID representation of the reference.
func (r *Ref) String() string { return r.OSISID() }

// IsRange returns true if this reference spans multiple verses.
func (r *Ref) IsRange() bool {
	return r.VerseEnd > 0 && r.VerseEnd > r.Verse
}

// Matches reports whether the reference agrees with the given chapter
// and verse, used for the self-reference sanity check on note origins.
// Verse bridges match any verse inside the bridge.
func (r *Ref) Matches(chapter, verse int) bool {
	if r.Chapter != chapter {
		return false
	}
	if r.Verse == 0 || verse == 0 {
		return true
	}
	if r.IsRange() {
		return verse >= r.Verse && verse <= r.VerseEnd
	}
	return r.Verse == verse
}

// Location is the current processing position, used as a resolution hint
// and for self-reference validation. Chapter and Verse stay strings
// because verse tokens can be bridged ("16-17") or listed ("16,17").
type Location struct {
	Book    string
	Chapter string
	Verse   string
}

// ChapterNum returns the numeric chapter, or 0 if unparseable.
func (l Location) ChapterNum() int {
	n, _ := strconv.Atoi(l.Chapter)
	return n
}

// VerseNum returns the first numeric verse of the location, or 0 if
// unparseable. Bridged and listed verse tokens yield their first number.
func (l Location) VerseNum() int {
	v := l.Verse
	for i, c := range v {
		if c < '0' || c > '9' {
			v = v[:i]
			break
		}
	}
	n, _ := strconv.Atoi(v)
	return n
}

// Resolver resolves raw origin text to a canonical reference. Resolution
// failure is a normal, loggable outcome: Resolve returns nil rather than
// an error, and must never panic.
type Resolver interface {
	// Resolve maps raw reference text to a canonical Ref, or nil.
	Resolve(raw string, hint Location) *Ref

	// ContainsRef reports whether the given book/chapter/verse exists
	// in the work being converted.
	ContainsRef(book string, chapter, verse int) bool
}
