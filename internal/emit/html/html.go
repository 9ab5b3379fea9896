// Package html emits standalone HTML, one file per book, with linked
// end-notes collected at the bottom of each book.
package html

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
		Name:        "html",
		Description: "HTML, one page per book with linked end-notes",
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
	paths []string
	meta  structure.BookMeta
	pairs []emit.Pair

	chapter string
	verseID string
}

// New creates the HTML writer. Output files are opened per book.
func New(opts emit.Options) (emit.Writer, error) {
	return &emitter{
		opts: opts,
		pairs: emit.CharPairs(
			`<span class="added">`, `</span>`,
			`<span class="divine-name">`, `</span>`,
			`<span class="words-of-jesus">`, `</span>`,
		),
	}, nil
}

func (e *emitter) BeginBook(meta structure.BookMeta) error {
	path := filepath.Join(e.opts.OutDir, meta.Code+".html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML output: %w", err)
	}
	e.f = f
	e.w = bufio.NewWriter(f)
	e.paths = append(e.paths, path)
	e.meta = meta

	e.line(`<!DOCTYPE html>`)
	e.linef(`<html lang=%q>`, e.opts.Language)
	e.line(`<head>`)
	e.line(`<meta charset="utf-8">`)
	e.linef(`<title>%s - %s</title>`, escape(meta.Name), escape(e.opts.Description))
	e.line(`</head>`)
	e.line(`<body>`)
	e.linef(`<h1>%s</h1>`, escape(meta.Name))
	return nil
}

var openTags = map[structure.ContainerType]string{
	structure.Introduction: `<div class="introduction">`,
	structure.Outline:      `<div class="outline">`,
	structure.MajorSection: `<div class="major-section">`,
	structure.Section:      `<div class="section">`,
	structure.Subsection:   `<div class="subsection">`,
	structure.Paragraph:    `<p>`,
	structure.LineGroup:    `<div class="linegroup">`,
	structure.List:         `<ul>`,
}

var closeTags = map[structure.ContainerType]string{
	structure.Introduction: `</div>`,
	structure.Outline:      `</div>`,
	structure.MajorSection: `</div>`,
	structure.Section:      `</div>`,
	structure.Subsection:   `</div>`,
	structure.Paragraph:    `</p>`,
	structure.LineGroup:    `</div>`,
	structure.Line:         `</div>`,
	structure.List:         `</ul>`,
}

var headingLevels = map[structure.ContainerType]int{
	structure.MajorSection: 2,
	structure.Outline:      2,
	structure.Section:      3,
	structure.Subsection:   4,
}

func (e *emitter) OpenContainer(t structure.ContainerType, attrs structure.Attrs) {
	if t == structure.Line {
		e.linef(`<div class="line indent-%d">`, attrs.Level)
		return
	}
	e.line(openTags[t])
	if attrs.Title != "" {
		h := headingLevels[t]
		if h == 0 {
			h = 3
		}
		e.linef(`<h%d>%s</h%d>`, h, attrs.Title, h)
	}
	if attrs.Ref != "" {
		e.linef(`<div class="parallel">%s</div>`, attrs.Ref)
	}
}

func (e *emitter) CloseContainer(t structure.ContainerType) {
	e.line(closeTags[t])
}

func (e *emitter) StartChapter(number, osisRef string) {
	e.chapter = number
	e.linef(`<h2 class="chapter" id=%q>%s %s</h2>`, osisRef, escape(e.meta.Name), number)
}

func (e *emitter) EndChapter(osisRef string) {}

func (e *emitter) StartVerse(m verse.Milestone) {
	e.verseID = m.StartID
	e.linef(`<sup class="verse" id=%q>%s</sup>`, m.StartID, m.Number)
}

func (e *emitter) EndVerse(m verse.Milestone) {}

func (e *emitter) Heading(marker string, level int, text string) {
	switch marker {
	case "h", "toc":
		return
	case "d":
		e.linef(`<div class="psalm-title">%s</div>`, text)
	case "sp":
		e.linef(`<div class="speaker">%s</div>`, text)
	case "r", "sr", "mr", "ior":
		e.linef(`<div class="parallel">%s</div>`, text)
	case "mt":
		e.linef(`<h1 class="main-title">%s</h1>`, text)
	default:
		e.linef(`<h3>%s</h3>`, text)
	}
}

func (e *emitter) ListItem(level int, text string) {
	e.linef(`<li class="indent-%d">%s</li>`, level, text)
}

func (e *emitter) Text(s string) {
	e.line(emit.RepairPairs(s, e.pairs, e.meta.Rep, e.chapter, e.verseID))
}

func (e *emitter) Break() {
	e.line(`<br>`)
}

// InlineNote renders a superscript back-reference; the body lands in
// the end-note list written by EndBook.
func (e *emitter) InlineNote(r *notes.Rendered) string {
	class := "footnote"
	if r.Kind == entry.KindCrossRef {
		class = "crossref"
	}
	return fmt.Sprintf(`<sup class=%q id="ref-%s"><a href="#%s">%d</a></sup>`,
		class, r.Label(), r.Label(), r.ID)
}

func (e *emitter) EndBook(endnotes []notes.EndNote) error {
	if len(endnotes) > 0 {
		e.line(`<hr>`)
		e.line(`<ol class="endnotes">`)
		for _, n := range endnotes {
			var b strings.Builder
			if n.Anchor != "" {
				fmt.Fprintf(&b, `<span class="anchor">%s</span> `, escape(n.Anchor))
			}
			b.WriteString(escape(n.Body))
			e.linef(`<li id=%q>%s <a href="#ref-%s">&#8617;</a></li>`,
				n.Label(), b.String(), n.Label())
		}
		e.line(`</ol>`)
	}
	e.line(`</body>`)
	e.line(`</html>`)
	if err := e.w.Flush(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}

// Finalize is a no-op; files are closed per book.
func (e *emitter) Finalize() error {
	return nil
}

func (e *emitter) Paths() []string {
	return e.paths
}

func (e *emitter) line(s string) {
	e.w.WriteString(s)
	e.w.WriteByte('\n')
}

func (e *emitter) linef(format string, args ...any) {
	fmt.Fprintf(e.w, format, args...)
	e.w.WriteByte('\n')
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
