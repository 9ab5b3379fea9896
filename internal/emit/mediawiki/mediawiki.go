// Package mediawiki emits MediaWiki markup, all books in one page
// source file, with notes as <ref> tags.
package mediawiki

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/structure"
	"github.com/FocuswithJustin/Scriptorium/core/verse"
	"github.com/FocuswithJustin/Scriptorium/internal/emit"
)

// Register registers this format with the emitter registry.
func Register() {
	emit.Register(emit.Factory{
		Name:        "mediawiki",
		Description: "MediaWiki page source, one document for the module",
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

	cur     strings.Builder
	chapter string
	verseN  string
}

// New creates the MediaWiki writer and emits the page lead.
func New(opts emit.Options) (emit.Writer, error) {
	path := filepath.Join(opts.OutDir, opts.ModuleName+".wiki")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create MediaWiki output: %w", err)
	}
	e := &emitter{
		opts:  opts,
		f:     f,
		w:     bufio.NewWriter(f),
		path:  path,
		pairs: emit.CharPairs("''", "''", "'''", "'''", "", ""),
	}
	e.put("'''" + opts.Description + "'''")
	return e, nil
}

func (e *emitter) BeginBook(meta structure.BookMeta) error {
	e.meta = meta
	e.put("= " + meta.Name + " =")
	return nil
}

func (e *emitter) OpenContainer(t structure.ContainerType, attrs structure.Attrs) {
	switch t {
	case structure.MajorSection, structure.Outline:
		if attrs.Title != "" {
			e.put("=== " + attrs.Title + " ===")
		}
	case structure.Section:
		e.put("==== " + attrs.Title + " ====")
		if attrs.Ref != "" {
			e.put("''" + attrs.Ref + "''")
		}
	case structure.Subsection:
		e.put("===== " + attrs.Title + " =====")
	case structure.Paragraph:
		e.flush()
	case structure.LineGroup:
		e.flush()
	case structure.Line:
		e.flush()
		e.cur.WriteString(strings.Repeat(":", attrs.Level))
	case structure.List:
		e.flush()
	}
}

func (e *emitter) CloseContainer(t structure.ContainerType) {
	e.flush()
}

func (e *emitter) StartChapter(number, osisRef string) {
	e.flush()
	e.chapter = number
	e.put("== " + e.meta.Name + " " + number + " ==")
}

func (e *emitter) EndChapter(osisRef string) {}

func (e *emitter) StartVerse(m verse.Milestone) {
	e.verseN = m.Number
	e.append("'''" + m.Number + "'''")
}

func (e *emitter) EndVerse(m verse.Milestone) {}

func (e *emitter) Heading(marker string, level int, text string) {
	switch marker {
	case "h", "toc":
		return
	case "d", "sp", "r", "sr", "mr", "ior":
		e.put("''" + text + "''")
	case "mt":
		e.put("== " + text + " ==")
	default:
		e.put("==== " + text + " ====")
	}
}

func (e *emitter) ListItem(level int, text string) {
	e.flush()
	e.put(strings.Repeat("*", level) + " " + text)
}

func (e *emitter) Text(s string) {
	e.append(emit.RepairPairs(s, e.pairs, e.meta.Rep, e.chapter, e.verseN))
}

func (e *emitter) Break() {
	e.flush()
}

// InlineNote renders the note body inline as a <ref> tag; MediaWiki
// collects them under the references section itself.
func (e *emitter) InlineNote(r *notes.Rendered) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<ref name=%q>`, e.meta.Code+"-"+r.Label())
	if r.Anchor != "" {
		b.WriteString(r.Anchor + ": ")
	}
	for i, seg := range r.Segments {
		if i > 0 {
			b.WriteString(" ")
		}
		if seg.Kind == notes.SegQuote {
			b.WriteString("''" + seg.Text + "''")
		} else {
			b.WriteString(seg.Text)
		}
	}
	b.WriteString(`</ref>`)
	return b.String()
}

func (e *emitter) EndBook(endnotes []notes.EndNote) error {
	e.flush()
	return nil
}

// Finalize writes the references section and closes the page.
func (e *emitter) Finalize() error {
	e.put("== Notes ==")
	e.put("<references/>")
	if err := e.w.Flush(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}

func (e *emitter) Paths() []string {
	return []string{e.path}
}

func (e *emitter) put(s string) {
	e.flush()
	e.w.WriteString(s)
	e.w.WriteString("\n\n")
}

func (e *emitter) append(s string) {
	// no space directly after the poetry indent prefix
	if e.cur.Len() > 0 && !strings.HasSuffix(e.cur.String(), ":") {
		e.cur.WriteByte(' ')
	}
	e.cur.WriteString(s)
}

func (e *emitter) flush() {
	if e.cur.Len() == 0 {
		return
	}
	e.w.WriteString(e.cur.String())
	e.w.WriteString("\n\n")
	e.cur.Reset()
}
