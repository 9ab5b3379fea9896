// Package markdown emits Markdown, one file per book, with footnote
// definitions collected at the bottom.
package markdown

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
		Name:        "markdown",
		Description: "Markdown, one file per book",
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

	// cur accumulates one flowing paragraph or poetry line.
	cur     strings.Builder
	chapter string
	verseN  string
}

// New creates the Markdown writer. Output files are opened per book.
func New(opts emit.Options) (emit.Writer, error) {
	return &emitter{
		opts:  opts,
		pairs: emit.CharPairs("*", "*", "**", "**", "", ""),
	}, nil
}

func (e *emitter) BeginBook(meta structure.BookMeta) error {
	path := filepath.Join(e.opts.OutDir, meta.Code+".md")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create Markdown output: %w", err)
	}
	e.f = f
	e.w = bufio.NewWriter(f)
	e.paths = append(e.paths, path)
	e.meta = meta
	e.put("# " + meta.Name)
	return nil
}

func (e *emitter) OpenContainer(t structure.ContainerType, attrs structure.Attrs) {
	switch t {
	case structure.MajorSection:
		e.put("## " + attrs.Title)
		if attrs.Ref != "" {
			e.put("*" + attrs.Ref + "*")
		}
	case structure.Section:
		e.put("### " + attrs.Title)
		if attrs.Ref != "" {
			e.put("*" + attrs.Ref + "*")
		}
	case structure.Subsection:
		e.put("#### " + attrs.Title)
	case structure.Outline:
		if attrs.Title != "" {
			e.put("## " + attrs.Title)
		}
	case structure.Paragraph:
		e.flush()
	case structure.LineGroup:
		e.flush()
	case structure.Line:
		e.flushPoetry()
		e.cur.WriteString(strings.Repeat("&nbsp;&nbsp;", attrs.Level-1))
	case structure.List:
		e.flush()
	}
}

func (e *emitter) CloseContainer(t structure.ContainerType) {
	switch t {
	case structure.LineGroup:
		e.flushPoetry()
	case structure.Line:
		e.flushPoetry()
	default:
		e.flush()
	}
}

func (e *emitter) StartChapter(number, osisRef string) {
	e.flush()
	e.chapter = number
	e.put("## Chapter " + number)
}

func (e *emitter) EndChapter(osisRef string) {}

func (e *emitter) StartVerse(m verse.Milestone) {
	e.verseN = m.Number
	e.append("**" + m.Number + "**")
}

func (e *emitter) EndVerse(m verse.Milestone) {}

func (e *emitter) Heading(marker string, level int, text string) {
	switch marker {
	case "h", "toc":
		return
	case "mt":
		e.put("# " + text)
	case "d", "sp":
		e.put("*" + text + "*")
	case "r", "sr", "mr", "ior":
		e.put("*" + text + "*")
	default:
		e.put("### " + text)
	}
}

func (e *emitter) ListItem(level int, text string) {
	e.flush()
	e.put(strings.Repeat("  ", level-1) + "- " + text)
}

func (e *emitter) Text(s string) {
	e.append(emit.RepairPairs(s, e.pairs, e.meta.Rep, e.chapter, e.verseN))
}

func (e *emitter) Break() {
	e.flush()
}

// InlineNote uses Markdown footnote syntax; definitions are written by
// EndBook.
func (e *emitter) InlineNote(r *notes.Rendered) string {
	return "[^" + r.Label() + "]"
}

func (e *emitter) EndBook(endnotes []notes.EndNote) error {
	e.flush()
	for _, n := range endnotes {
		if n.Anchor != "" {
			e.put(fmt.Sprintf("[^%s]: (%s) %s", n.Label(), n.Anchor, n.Body))
		} else {
			e.put(fmt.Sprintf("[^%s]: %s", n.Label(), n.Body))
		}
	}
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

// put writes a block element followed by a blank separator line.
func (e *emitter) put(s string) {
	e.flush()
	e.w.WriteString(s)
	e.w.WriteString("\n\n")
}

func (e *emitter) append(s string) {
	// no space directly after a poetry indent prefix
	if cur := e.cur.String(); len(cur) > 0 && !strings.HasSuffix(cur, "&nbsp;") {
		e.cur.WriteByte(' ')
	}
	e.cur.WriteString(s)
}

// flush ends the pending flowing paragraph.
func (e *emitter) flush() {
	if e.cur.Len() == 0 {
		return
	}
	e.w.WriteString(e.cur.String())
	e.w.WriteString("\n\n")
	e.cur.Reset()
}

// flushPoetry ends a poetry line with a hard break instead of a
// paragraph separator.
func (e *emitter) flushPoetry() {
	if e.cur.Len() == 0 {
		return
	}
	e.w.WriteString(e.cur.String())
	e.w.WriteString("  \n")
	e.cur.Reset()
}
