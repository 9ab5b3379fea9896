// Package usfm emits USFM, one file per book, reconstructing the
// marker syntax the normalized stream was parsed from.
package usfm

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
		Name:        "usfm",
		Description: "USFM marker text, one file per book",
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

	// cur is the pending output line; verse and poetry text is
	// appended to it before the newline is committed.
	cur   strings.Builder
	intro bool
}

// New creates the USFM writer. Output files are opened per book.
func New(opts emit.Options) (emit.Writer, error) {
	return &emitter{opts: opts}, nil
}

func (e *emitter) BeginBook(meta structure.BookMeta) error {
	path := filepath.Join(e.opts.OutDir, meta.Code+".usfm")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create USFM output: %w", err)
	}
	e.f = f
	e.w = bufio.NewWriter(f)
	e.paths = append(e.paths, path)
	e.meta = meta
	e.intro = false

	e.put(`\id ` + meta.Code + " " + meta.Name)
	if meta.Title != "" {
		e.put(`\h ` + meta.Title)
	}
	return nil
}

func (e *emitter) OpenContainer(t structure.ContainerType, attrs structure.Attrs) {
	switch t {
	case structure.Introduction:
		e.intro = true
	case structure.Outline:
		e.put(`\iot ` + attrs.Title)
	case structure.MajorSection:
		e.put(fmt.Sprintf(`\ms%d %s`, attrs.Level, attrs.Title))
		if attrs.Ref != "" {
			e.put(`\mr ` + attrs.Ref)
		}
	case structure.Section, structure.Subsection:
		e.put(fmt.Sprintf(`\s%d %s`, attrs.Level, attrs.Title))
		if attrs.Ref != "" {
			e.put(`\r ` + attrs.Ref)
		}
	case structure.Paragraph:
		if e.intro {
			e.open(`\ip`)
		} else {
			e.put(`\p`)
		}
	case structure.Line:
		e.open(fmt.Sprintf(`\q%d`, attrs.Level))
	case structure.LineGroup, structure.List:
		// no marker of their own in USFM
	}
}

func (e *emitter) CloseContainer(t structure.ContainerType) {
	if t == structure.Introduction {
		e.intro = false
	}
	e.flush()
}

func (e *emitter) StartChapter(number, osisRef string) {
	e.put(`\c ` + number)
}

func (e *emitter) EndChapter(osisRef string) {}

func (e *emitter) StartVerse(m verse.Milestone) {
	e.open(`\v ` + m.Number)
}

func (e *emitter) EndVerse(m verse.Milestone) {
	e.flush()
}

func (e *emitter) Heading(marker string, level int, text string) {
	switch marker {
	case "h":
		// written in BeginBook from the book metadata
		return
	case "mt", "toc", "is":
		e.put(fmt.Sprintf(`\%s%d %s`, marker, level, text))
	case "ior":
		e.put(`\ior ` + text + `\ior*`)
	default:
		e.put(`\` + marker + ` ` + text)
	}
}

func (e *emitter) ListItem(level int, text string) {
	m := "li"
	if e.intro {
		m = "io"
	}
	e.put(fmt.Sprintf(`\%s%d %s`, m, level, text))
}

func (e *emitter) Text(s string) {
	if e.cur.Len() > 0 {
		e.cur.WriteByte(' ')
	}
	e.cur.WriteString(s)
}

func (e *emitter) Break() {
	e.put(`\b`)
}

// InlineNote reconstructs the footnote or cross-reference markup.
func (e *emitter) InlineNote(r *notes.Rendered) string {
	open, originTag, origin := `\f`, `\fr`, "+"
	if r.Kind == entry.KindCrossRef {
		open, originTag, origin = `\x`, `\xo`, "-"
	}
	if r.Caller != "" {
		origin = r.Caller
	}
	var b strings.Builder
	b.WriteString(open + " " + origin)
	if r.Anchor != "" {
		// the anchor carries the book abbreviation for display; the
		// origin field wants the bare chapter:verse
		fmt.Fprintf(&b, " %s %s", originTag, strings.TrimPrefix(r.Anchor, e.meta.OSIS+" "))
	}
	for _, seg := range r.Segments {
		switch seg.Kind {
		case notes.SegQuote:
			b.WriteString(` \fq ` + seg.Text)
		case notes.SegText:
			if r.Kind == entry.KindCrossRef {
				b.WriteString(` \xt ` + seg.Text)
			} else {
				b.WriteString(` \ft ` + seg.Text)
			}
		default:
			b.WriteString(" " + seg.Text)
		}
	}
	b.WriteString(open + `*`)
	return b.String()
}

func (e *emitter) EndBook(endnotes []notes.EndNote) error {
	e.flush()
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

// put writes a complete marker line.
func (e *emitter) put(line string) {
	e.flush()
	e.w.WriteString(line)
	e.w.WriteByte('\n')
}

// open starts a pending line that Text appends to.
func (e *emitter) open(prefix string) {
	e.flush()
	e.cur.WriteString(prefix)
}

func (e *emitter) flush() {
	if e.cur.Len() == 0 {
		return
	}
	e.w.WriteString(e.cur.String())
	e.w.WriteByte('\n')
	e.cur.Reset()
}
