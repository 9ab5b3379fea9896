package structure

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/report"
	"github.com/FocuswithJustin/Scriptorium/core/splice"
	"github.com/FocuswithJustin/Scriptorium/core/verse"
)

// Machine walks one book's normalized marker stream and drives an
// Emitter. It owns the container stack, the open chapter and verse
// milestone, and the splice of rendered note markup back into text.
type Machine struct {
	meta  BookMeta
	em    Emitter
	rn    *notes.Renderer
	nctx  *notes.Context
	rep   *report.Report
	stack []Frame

	chapter     string
	chapterOpen bool
	pending     *verse.Milestone
	verseNum    string
}

// New builds a machine for one book. The notes context is shared
// across books when counters run per file.
func New(meta BookMeta, em Emitter, rn *notes.Renderer, nctx *notes.Context, rep *report.Report) *Machine {
	return &Machine{meta: meta, em: em, rn: rn, nctx: nctx, rep: rep}
}

// markers consumed for their side effects elsewhere in the pipeline,
// never emitted.
var silentMarkers = map[string]bool{
	"id": true, "ide": true, "rem": true, "sts": true, "usfm": true,
}

// Run consumes the book's entries in order and finishes with an
// end-of-book flush. The container stack is empty on return; a
// non-empty stack indicates a machine bug and is reported as an error.
func (m *Machine) Run(book *entry.Book) error {
	if err := m.em.BeginBook(m.meta); err != nil {
		return err
	}
	m.nctx.EnterBook(m.meta.Code)

	for i := 0; i < len(book.Entries); i++ {
		e := &book.Entries[i]
		if secRef := m.peekSectionRef(book.Entries, i, e.Marker); secRef != "" {
			i++ // the reference line was folded into this section's attrs
			m.handle(e, secRef)
			continue
		}
		m.handle(e, "")
	}

	m.closePendingVerse()
	m.closeTypes(CloseAll(m.stack))
	if m.chapterOpen {
		m.em.EndChapter(m.chapterRef())
		m.chapterOpen = false
	}
	if len(m.stack) != 0 {
		return fmt.Errorf("structure: %d container(s) left open after flush", len(m.stack))
	}
	return m.em.EndBook(m.nctx.Drain())
}

// peekSectionRef checks whether the entry at i opens a section whose
// following line is a parallel-passage reference (r, sr, mr). If so it
// returns that reference text so it can ride along as a container
// attribute instead of a detached heading.
func (m *Machine) peekSectionRef(entries []entry.LineEntry, i int, marker string) string {
	switch baseMarker(marker) {
	case "s", "ms":
	default:
		return ""
	}
	if i+1 >= len(entries) {
		return ""
	}
	next := &entries[i+1]
	switch next.Marker {
	case "r", "sr", "mr":
		return m.spliceText(next)
	}
	return ""
}

func (m *Machine) handle(e *entry.LineEntry, sectionRef string) {
	marker := e.Marker
	if silentMarkers[marker] {
		return
	}
	base := baseMarker(marker)
	level := markerLevel(marker)

	switch base {
	case "c":
		number, _, _ := strings.Cut(strings.TrimSpace(e.Text), " ")
		if number == "" {
			m.rep.Record(report.StructuralAnomaly, m.chapter, m.verseNum, "chapter marker without a number")
			return
		}
		m.startChapter(number)

	case "v":
		m.startVerse(e)

	case "v~", "p~":
		m.em.Text(m.spliceText(e))

	case "h", "toc":
		m.em.Heading(base, level, m.spliceText(e))

	case "mt", "imt":
		m.em.Heading(base, level, m.spliceText(e))

	case "ms":
		m.openContainer(MajorSection, Attrs{Title: m.spliceText(e), Level: level, Ref: sectionRef})

	case "s":
		t := Section
		if level > 1 {
			t = Subsection
		}
		m.openContainer(t, Attrs{Title: m.spliceText(e), Level: level, Ref: sectionRef})

	case "r", "sr", "mr", "d", "sp", "cl", "cp", "is", "ior":
		m.em.Heading(base, level, m.spliceText(e))

	case "p", "m", "nb", "pi", "mi", "pc":
		m.openContainer(Paragraph, Attrs{Level: level})
		if e.Text != "" {
			m.rep.Record(report.StructuralAnomaly, m.chapter, m.verseNum,
				fmt.Sprintf("container marker %q carries text", marker))
			m.em.Text(m.spliceText(e))
		}

	case "q", "qm":
		if !m.open(LineGroup) {
			m.openContainer(LineGroup, Attrs{})
		}
		m.openContainer(Line, Attrs{Level: level})
		if e.Text != "" {
			m.em.Text(m.spliceText(e))
		}

	case "b":
		m.closeTopIf(Line)
		m.em.Break()

	case "iot":
		m.ensureIntroduction()
		m.openContainer(Outline, Attrs{Title: m.spliceText(e)})

	case "ip", "im", "ipi":
		m.ensureIntroduction()
		m.openContainer(Paragraph, Attrs{})
		if e.Text != "" {
			m.em.Text(m.spliceText(e))
		}

	case "io", "ili":
		m.ensureIntroduction()
		if !m.open(List) {
			m.openContainer(List, Attrs{})
		}
		m.em.ListItem(level, m.spliceText(e))

	case "li":
		if !m.open(List) {
			if !m.open(Introduction) && !m.open(Outline) {
				m.rep.Record(report.StructuralAnomaly, m.chapter, m.verseNum,
					"list item outside introduction or outline")
			}
			m.openContainer(List, Attrs{})
		}
		m.em.ListItem(level, m.spliceText(e))

	default:
		m.rep.RecordUnknownMarker(marker)
		if e.Text != "" {
			m.em.Text(m.spliceText(e))
		}
	}
}

// startChapter ends the pending verse and the open chapter, closes any
// lingering front matter, and opens the new chapter. Introduction and
// outline material is expected to end before the first chapter; later
// closes are performed anyway and logged.
func (m *Machine) startChapter(number string) {
	m.closePendingVerse()
	if m.open(Introduction) || m.open(Outline) {
		if number != "1" {
			m.rep.Record(report.StructuralAnomaly, number, "",
				"introduction material still open past chapter 1")
		}
		m.closeThrough(Introduction, Outline)
	}
	if m.chapterOpen {
		m.em.EndChapter(m.chapterRef())
	}
	m.chapter = number
	m.chapterOpen = true
	m.verseNum = ""
	m.em.StartChapter(number, m.chapterRef())
}

// startVerse parses the verse number token, closes a poetry line and
// the pending milestone, and opens the new one. Text after the number
// token is emitted as verse body.
func (m *Machine) startVerse(e *entry.LineEntry) {
	if m.chapter == "" {
		m.rep.Record(report.StructuralAnomaly, "", "", "verse before first chapter")
		m.startChapter("1")
	}
	m.closeTopIf(Line)
	m.closePendingVerse()

	number, rest, _ := strings.Cut(e.Text, " ")
	ms := verse.Parse(number, m.chapterRef(), m.rep)
	m.verseNum = ms.Number
	m.nctx.SetPosition(m.chapter, ms.Number)
	m.em.StartVerse(ms)
	m.pending = &ms

	if rest = strings.TrimSpace(rest); rest != "" {
		body := entry.LineEntry{Marker: "v~", Text: rest, CleanText: rest, Extras: e.Extras}
		m.em.Text(m.spliceText(&body))
	}
}

func (m *Machine) closePendingVerse() {
	if m.pending == nil {
		return
	}
	m.em.EndVerse(*m.pending)
	m.pending = nil
}

// spliceText renders each extra through the notes renderer and the
// emitter's inline formatter, then re-inserts it at its recorded
// offset. Offsets index the entry's pre-splice text: CleanText, or
// Text when no CleanText was recorded.
func (m *Machine) spliceText(e *entry.LineEntry) string {
	base := e.CleanText
	if base == "" {
		base = e.Text
	}
	if len(e.Extras) == 0 {
		return base
	}
	return splice.Insert(base, e.Extras, func(x entry.Extra) string {
		r := m.rn.Render(x.Kind, x.RawMarkup, m.nctx, m.rep)
		if r == nil {
			return ""
		}
		return m.em.InlineNote(r)
	}, m.rep, m.chapter, m.verseNum)
}

func (m *Machine) openContainer(t ContainerType, attrs Attrs) {
	m.closeTypes(Transition(m.stack, t))
	m.stack = append(m.stack, Frame{Type: t})
	m.em.OpenContainer(t, attrs)
}

func (m *Machine) closeTypes(types []ContainerType) {
	for _, t := range types {
		m.stack = m.stack[:len(m.stack)-1]
		m.em.CloseContainer(t)
	}
}

// closeTopIf closes the innermost container when it has the given
// type. Used for closes that must not cascade.
func (m *Machine) closeTopIf(t ContainerType) {
	if n := len(m.stack); n > 0 && m.stack[n-1].Type == t {
		m.closeTypes([]ContainerType{t})
	}
}

// closeThrough closes innermost-first until every container of the
// given types is closed.
func (m *Machine) closeThrough(types ...ContainerType) {
	want := make(map[ContainerType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	for i := range m.stack {
		if want[m.stack[i].Type] {
			m.closeTypes(CloseAll(m.stack[i:]))
			return
		}
	}
}

func (m *Machine) ensureIntroduction() {
	if m.chapterOpen {
		return
	}
	if !m.open(Introduction) {
		m.openContainer(Introduction, Attrs{})
	}
}

func (m *Machine) open(t ContainerType) bool {
	for _, f := range m.stack {
		if f.Type == t {
			return true
		}
	}
	return false
}

func (m *Machine) chapterRef() string {
	return m.meta.OSIS + "." + m.chapter
}

// baseMarker strips a trailing level digit: "q2" yields "q",
// "toc3" yields "toc".
func baseMarker(marker string) string {
	return strings.TrimRight(marker, "123456789")
}

// markerLevel reads the trailing level digit, defaulting to 1.
func markerLevel(marker string) int {
	base := baseMarker(marker)
	if len(base) == len(marker) {
		return 1
	}
	return int(marker[len(marker)-1] - '0')
}
