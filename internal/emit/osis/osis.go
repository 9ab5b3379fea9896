// Package osis emits OSIS XML with milestoned chapter and verse
// boundaries, all books in one document.
package osis

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/structure"
	"github.com/FocuswithJustin/Scriptorium/core/verse"
	"github.com/FocuswithJustin/Scriptorium/internal/emit"
)

// Register registers this format with the emitter registry.
func Register() {
	emit.Register(emit.Factory{
		Name:        "osis",
		Description: "OSIS XML, one document with milestoned verses",
		Combined:    true,
		New:         New,
	})
}

func init() {
	Register()
}

type emitter struct {
	opts  emit.Options
	f     *os.File
	w     *bufio.Writer
	path  string
	meta  structure.BookMeta
	pairs []emit.Pair

	chapter string
	verseID string
}

// New creates the OSIS writer and emits the document header.
func New(opts emit.Options) (emit.Writer, error) {
	path := filepath.Join(opts.OutDir, opts.ModuleName+".osis.xml")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create OSIS output: %w", err)
	}
	e := &emitter{
		opts: opts,
		f:    f,
		w:    bufio.NewWriter(f),
		path: path,
		pairs: emit.CharPairs(
			`<transChange type="added">`, `</transChange>`,
			`<divineName>`, `</divineName>`,
			`<q who="Jesus" marker="">`, `</q>`,
		),
	}
	e.line(`<?xml version="1.0" encoding="UTF-8"?>`)
	e.line(`<osis xmlns="http://www.bibletechnologies.net/2003/OSIS/namespace">`)
	e.linef(`<osisText osisIDWork=%q osisRefWork="Bible" xml:lang=%q>`, opts.ModuleName, opts.Language)
	e.line(`<header>`)
	e.linef(`<work osisWork=%q>`, opts.ModuleName)
	e.linef(`<title>%s</title>`, escape(opts.Description))
	e.linef(`<refSystem>Bible.%s</refSystem>`, opts.Versification)
	e.line(`</work>`)
	e.line(`</header>`)
	return e, nil
}

func (e *emitter) BeginBook(meta structure.BookMeta) error {
	e.meta = meta
	e.linef(`<div type="book" osisID=%q canonical="true">`, meta.OSIS)
	return nil
}

var openTags = map[structure.ContainerType]string{
	structure.Introduction: `<div type="introduction">`,
	structure.Outline:      `<div type="outline">`,
	structure.MajorSection: `<div type="majorSection">`,
	structure.Section:      `<div type="section">`,
	structure.Subsection:   `<div type="subSection">`,
	structure.Paragraph:    `<p>`,
	structure.LineGroup:    `<lg>`,
	structure.List:         `<list>`,
}

var closeTags = map[structure.ContainerType]string{
	structure.Introduction: `</div>`,
	structure.Outline:      `</div>`,
	structure.MajorSection: `</div>`,
	structure.Section:      `</div>`,
	structure.Subsection:   `</div>`,
	structure.Paragraph:    `</p>`,
	structure.LineGroup:    `</lg>`,
	structure.Line:         `</l>`,
	structure.List:         `</list>`,
}

func (e *emitter) OpenContainer(t structure.ContainerType, attrs structure.Attrs) {
	if t == structure.Line {
		if attrs.Level > 1 {
			e.linef(`<l level="%d">`, attrs.Level)
		} else {
			e.line(`<l>`)
		}
		return
	}
	e.line(openTags[t])
	if attrs.Title != "" {
		e.linef(`<title>%s</title>`, attrs.Title)
	}
	if attrs.Ref != "" {
		e.linef(`<title type="parallel">%s</title>`, attrs.Ref)
	}
}

func (e *emitter) CloseContainer(t structure.ContainerType) {
	e.line(closeTags[t])
}

func (e *emitter) StartChapter(number, osisRef string) {
	e.chapter = number
	e.linef(`<chapter osisID=%q sID=%q/>`, osisRef, osisRef)
}

func (e *emitter) EndChapter(osisRef string) {
	e.linef(`<chapter eID=%q/>`, osisRef)
}

func (e *emitter) StartVerse(m verse.Milestone) {
	e.verseID = m.StartID
	e.linef(`<verse osisID=%q sID=%q/>`, strings.Join(m.IDs, " "), m.StartID)
}

func (e *emitter) EndVerse(m verse.Milestone) {
	e.linef(`<verse eID=%q/>`, m.EndID())
}

func (e *emitter) Heading(marker string, level int, text string) {
	switch marker {
	case "h", "toc":
		// carried in the work header, not the text stream
		return
	case "mt":
		e.linef(`<title type="main">%s</title>`, text)
	case "d":
		e.linef(`<title type="psalm" canonical="true">%s</title>`, text)
	case "sp":
		e.linef(`<speaker>%s</speaker>`, text)
	case "r":
		e.linef(`<title type="parallel">%s</title>`, text)
	case "sr", "mr", "ior":
		e.linef(`<title type="scope">%s</title>`, text)
	case "cl":
		e.linef(`<title type="chapterLabel">%s</title>`, text)
	default:
		e.linef(`<title>%s</title>`, text)
	}
}

func (e *emitter) ListItem(level int, text string) {
	if level > 1 {
		e.linef(`<item type="x-indent-%d">%s</item>`, level, text)
		return
	}
	e.linef(`<item>%s</item>`, text)
}

func (e *emitter) Text(s string) {
	e.line(emit.RepairPairs(s, e.pairs, e.meta.Rep, e.chapter, verseOf(e.verseID)))
}

func (e *emitter) Break() {
	e.line(`<lb/>`)
}

// InlineNote renders a note element in place. OSIS keeps notes inline,
// so EndBook has no back matter to write.
func (e *emitter) InlineNote(r *notes.Rendered) string {
	typ := "study"
	if r.Kind == entry.KindCrossRef {
		typ = "crossReference"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<note type=%q osisID="%s!%s"`, typ, e.verseID, r.Label())
	if r.Caller != "" && r.Caller != "+" && r.Caller != "-" {
		fmt.Fprintf(&b, ` n=%q`, r.Caller)
	}
	b.WriteString(`>`)
	if r.Anchor != "" {
		osisRef := e.verseID
		if r.OriginRef != nil {
			osisRef = r.OriginRef.OSISID()
		}
		fmt.Fprintf(&b, `<reference osisRef=%q type="source">%s</reference> `, osisRef, escape(r.Anchor))
	}
	for i, seg := range r.Segments {
		if i > 0 {
			b.WriteString(" ")
		}
		switch seg.Kind {
		case notes.SegQuote:
			fmt.Fprintf(&b, `<catchWord>%s</catchWord>`, escape(seg.Text))
		default:
			b.WriteString(escape(seg.Text))
		}
	}
	b.WriteString(`</note>`)
	return b.String()
}

func (e *emitter) EndBook(endnotes []notes.EndNote) error {
	e.line(`</div>`)
	return nil
}

// Finalize closes the document.
func (e *emitter) Finalize() error {
	e.line(`</osisText>`)
	e.line(`</osis>`)
	if err := e.w.Flush(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}

func (e *emitter) Paths() []string {
	return []string{e.path}
}

func (e *emitter) line(s string) {
	e.w.WriteString(s)
	e.w.WriteByte('\n')
}

func (e *emitter) linef(format string, args ...any) {
	fmt.Fprintf(e.w, format, args...)
	e.w.WriteByte('\n')
}

// escape covers note bodies and header fields built from raw markup.
// Verse text arrives from the normalized stream already entity-safe.
func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// verseOf extracts the verse part of an OSIS identifier for defect
// positions.
func verseOf(id string) string {
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		return id[i+1:]
	}
	return id
}
