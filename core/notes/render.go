package notes

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/ref"
	"github.com/FocuswithJustin/Scriptorium/core/report"
)

// SegmentKind classifies one rendered field of a note body.
type SegmentKind string

// Segment kinds.
const (
	// SegText is plain body text (\ft) or cross-reference target text (\xt).
	SegText SegmentKind = "text"

	// SegQuote is a quoted catch phrase (\fq), rendered as an embedded
	// emphasis span by emitters.
	SegQuote SegmentKind = "quote"

	// SegVerbatim is unclassified content from an unhandled sub-field
	// tag, kept verbatim so nothing is dropped.
	SegVerbatim SegmentKind = "verbatim"
)

// Segment is one classified piece of a note body.
type Segment struct {
	Kind SegmentKind `json:"kind"`
	Text string      `json:"text"`
}

// Rendered is the structured inline representation of one annotation.
// Emitters format it into target syntax; the core guarantees the ID is
// assigned and the end-note entry is accumulated before Render returns.
type Rendered struct {
	// Kind is footnote or cross-reference.
	Kind entry.ExtraKind

	// ID is the assigned sequential number.
	ID int

	// Caller is the leading caller/anchor token ("+", "-", or custom).
	Caller string

	// Anchor is the origin text with the vernacular book abbreviation
	// prepended (e.g. "Gen 1:1"), or the literal origin text when no
	// origin field was present.
	Anchor string

	// OriginRef is the resolved canonical reference; nil when
	// resolution failed (a normal, logged outcome).
	OriginRef *ref.Ref

	// Segments is the classified body.
	Segments []Segment
}

// Body returns the plain concatenated body text.
func (r *Rendered) Body() string {
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Label returns the short back-reference label ("fn1", "xr2") that
// emitters point at the end-note entry.
func (r *Rendered) Label() string {
	return fmt.Sprintf("%s%d", r.Kind, r.ID)
}

// noteFieldKind classifies a sub-field tag for one annotation kind.
// Footnotes recognize origin (fr), body text (ft), and quoted catch
// phrase (fq); cross-references recognize origin (xo) and target text
// (xt), the latter possibly repeated for multi-part references.
var noteFields = map[entry.ExtraKind]map[string]SegmentKind{
	entry.KindFootnote: {
		"fr": "",       // origin, handled specially
		"ft": SegText,
		"fq": SegQuote,
	},
	entry.KindCrossRef: {
		"xo": "",      // origin, handled specially
		"xt": SegText,
	},
}

// Renderer parses note sub-markup and assigns sequential IDs. One
// Renderer may serve many books; all mutable state lives on the Context.
type Renderer struct {
	// Resolver resolves origin tokens; nil disables resolution (origins
	// are kept literal and logged as unresolved).
	Resolver ref.Resolver
}

// Render parses the raw sub-markup of one annotation, assigns the next
// sequential ID from the context, accumulates the end-note entry, and
// returns the structured inline representation. Malformed markup with no
// recognizable tokens still produces a best-effort, non-crashing result
// from the literal text.
func (rn *Renderer) Render(kind entry.ExtraKind, rawMarkup string, ctx *Context, rep *report.Report) *Rendered {
	loc := ctx.Location
	r := &Rendered{Kind: kind}

	fields := noteFields[kind]
	tokens := strings.Split(rawMarkup, "\\")

	// The leading token, before any sub-field tag, is the caller: a
	// single character ("+", "-", or custom). Anything longer is content
	// from markup with no recognizable structure and is kept.
	if len(tokens) > 0 {
		lead := strings.TrimSpace(tokens[0])
		if len(lead) <= 1 {
			r.Caller = lead
		} else if lead != "" {
			r.Segments = append(r.Segments, Segment{Kind: SegVerbatim, Text: lead})
		}
		tokens = tokens[1:]
	}

	for _, token := range tokens {
		if token == "" {
			continue
		}
		tag, content := splitField(token)

		// A tag ending in * terminates its field and carries no content.
		if strings.HasSuffix(tag, "*") {
			continue
		}

		segKind, known := fields[tag]
		switch {
		case known && segKind == "":
			rn.renderOrigin(r, content, loc, rep)
		case known:
			r.Segments = append(r.Segments, Segment{Kind: segKind, Text: content})
		default:
			rep.Record(report.UnhandledNoteField, loc.Chapter, loc.Verse,
				fmt.Sprintf("tag %q in %s markup", tag, kind))
			r.Segments = append(r.Segments, Segment{Kind: SegVerbatim, Text: strings.TrimSpace(token)})
		}
	}

	// Nothing recognizable at all: keep the literal text so no content
	// is silently dropped.
	if r.Anchor == "" && len(r.Segments) == 0 {
		if lit := strings.TrimSpace(rawMarkup); lit != "" && lit != r.Caller {
			r.Segments = append(r.Segments, Segment{Kind: SegVerbatim, Text: lit})
		}
	}

	// The ID is assigned before the end-note entry is composed so IDs
	// stay stable and monotonic even when fields fail to resolve.
	r.ID = ctx.Next(kind)

	n := EndNote{
		Kind:     kind,
		ID:       r.ID,
		Anchor:   r.Anchor,
		Body:     r.Body(),
		Segments: r.Segments,
	}
	if r.OriginRef != nil {
		n.OSISRef = r.OriginRef.OSISID()
	}
	ctx.Add(n)

	return r
}

// renderOrigin handles an origin (\fr / \xo) token: prepend the
// vernacular book abbreviation, attempt canonical resolution, and check
// that the note really refers to the verse it is attached to.
func (rn *Renderer) renderOrigin(r *Rendered, content string, loc ref.Location, rep *report.Report) {
	display := strings.TrimSuffix(content, ":")
	abbrev := ref.OSISAbbrev(loc.Book)
	r.Anchor = strings.TrimSpace(abbrev + " " + display)

	if rn.Resolver == nil {
		rep.Record(report.UnresolvedReference, loc.Chapter, loc.Verse,
			fmt.Sprintf("no resolver for origin %q", content))
		return
	}

	resolved := rn.Resolver.Resolve(r.Anchor, loc)
	if resolved == nil {
		// Keep the raw anchor text; absence of resolution is normal.
		rep.Record(report.UnresolvedReference, loc.Chapter, loc.Verse,
			fmt.Sprintf("origin %q", content))
		return
	}
	r.OriginRef = resolved

	if !resolved.Matches(loc.ChapterNum(), loc.VerseNum()) {
		rep.Record(report.SelfReferenceMismatch, loc.Chapter, loc.Verse,
			fmt.Sprintf("origin %s does not match current location", resolved.OSISID()))
	} else if !rn.Resolver.ContainsRef(resolved.Book, resolved.Chapter, resolved.Verse) {
		rep.Record(report.UnresolvedReference, loc.Chapter, loc.Verse,
			fmt.Sprintf("origin %s not present in work", resolved.OSISID()))
	}
}

// splitField splits a sub-markup token into its tag and content. The
// content is everything after the tag and one separating space, with one
// trailing space stripped: the single normalized tokenization rule for
// note fields.
func splitField(token string) (tag, content string) {
	if i := strings.IndexByte(token, ' '); i >= 0 {
		tag, content = token[:i], token[i+1:]
	} else {
		tag = token
	}
	content = strings.TrimSuffix(content, " ")
	return tag, content
}
