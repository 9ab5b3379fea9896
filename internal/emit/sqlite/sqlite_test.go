package sqlite

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/ref"
	"github.com/FocuswithJustin/Scriptorium/core/report"
	"github.com/FocuswithJustin/Scriptorium/core/structure"
	"github.com/FocuswithJustin/Scriptorium/core/verse"
	"github.com/FocuswithJustin/Scriptorium/internal/emit"
	sqlitedrv "github.com/FocuswithJustin/Scriptorium/internal/sqlite"
)

func line(marker, text string) entry.LineEntry {
	return entry.LineEntry{Marker: marker, Text: text, CleanText: text}
}

func runBook(t *testing.T, w emit.Writer, code string, entries []entry.LineEntry) {
	t.Helper()
	rep := report.New(code, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rn := &notes.Renderer{Resolver: &ref.TableResolver{}}
	nctx := notes.NewContext(notes.ScopePerFile)
	bk, _ := ref.LookupBook(code)
	meta := structure.BookMeta{Code: code, OSIS: bk.OSIS, Name: bk.Name, Rep: rep}
	if err := structure.New(meta, w, rn, nctx, rep).Run(&entry.Book{Code: code, Entries: entries}); err != nil {
		t.Fatalf("Run(%s) error: %v", code, err)
	}
}

func TestEmitModuleDatabase(t *testing.T) {
	dir := t.TempDir()
	w, err := New(emit.Options{
		OutDir:        dir,
		ModuleName:    "TEST",
		Description:   "Test Module",
		Language:      "en",
		Versification: "KJV",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	clean := "In the beginning God created the heavens and the earth."
	runBook(t, w, "GEN", []entry.LineEntry{
		line("c", "1"),
		line("s1", "The Creation"),
		line("p", ""),
		line("v", "1"),
		{Marker: "v~", Text: clean, CleanText: clean, Extras: []entry.Extra{
			{Kind: entry.KindFootnote, Offset: 28, RawMarkup: `+ \fr 1:1 \ft lit. beginnings`},
		}},
		line("v", "2"),
		line("v~", "The earth was without form and void."),
	})
	runBook(t, w, "EXO", []entry.LineEntry{
		line("c", "1"),
		line("v", "1"),
		line("v~", "Now these are the names."),
	})
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}

	db, err := sqlitedrv.OpenReadOnly(filepath.Join(dir, "TEST.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var books int
	if err := db.QueryRow(`SELECT COUNT(*) FROM books`).Scan(&books); err != nil {
		t.Fatal(err)
	}
	if books != 2 {
		t.Errorf("books = %d, want 2", books)
	}

	var ord int
	if err := db.QueryRow(`SELECT ord FROM books WHERE code = 'EXO'`).Scan(&ord); err != nil {
		t.Fatal(err)
	}
	if ord != 2 {
		t.Errorf("EXO ord = %d, want 2", ord)
	}

	var text, startID string
	err = db.QueryRow(`SELECT text, start_id FROM verses WHERE book = 'GEN' AND chapter = '1' AND verse = '1'`).
		Scan(&text, &startID)
	if err != nil {
		t.Fatal(err)
	}
	if startID != "Gen.1.1" {
		t.Errorf("start_id = %q, want Gen.1.1", startID)
	}
	if want := "In the beginning God created[fn1] the heavens and the earth."; text != want {
		t.Errorf("verse text = %q, want %q", text, want)
	}

	var anchor, body string
	err = db.QueryRow(`SELECT anchor, body FROM notes WHERE book = 'GEN' AND kind = 'footnote' AND seq = 1`).
		Scan(&anchor, &body)
	if err != nil {
		t.Fatal(err)
	}
	if anchor != "Gen 1:1" || body != "lit. beginnings" {
		t.Errorf("note = %q / %q, want Gen 1:1 / lit. beginnings", anchor, body)
	}

	var name string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'name'`).Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "TEST" {
		t.Errorf("meta name = %q, want TEST", name)
	}
}

func TestEmitBridgeVerseRow(t *testing.T) {
	dir := t.TempDir()
	w, err := New(emit.Options{OutDir: dir, ModuleName: "TEST"})
	if err != nil {
		t.Fatal(err)
	}
	runBook(t, w, "EST", []entry.LineEntry{
		line("c", "9"),
		line("v", "16-17"),
		line("v~", "Now the rest of the Jews gathered."),
	})
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	db, err := sqlitedrv.OpenReadOnly(filepath.Join(dir, "TEST.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var startID string
	err = db.QueryRow(`SELECT start_id FROM verses WHERE book = 'EST' AND verse = '16-17'`).Scan(&startID)
	if err != nil {
		t.Fatal(err)
	}
	if startID != "Esth.9.16-Esth.9.17" {
		t.Errorf("start_id = %q, want Esth.9.16-Esth.9.17", startID)
	}
}

// A failed note insert must fail the run at Finalize instead of
// committing a module that silently lost the annotation.
func TestEmitFailedInsertSurfacesAtFinalize(t *testing.T) {
	dir := t.TempDir()
	w, err := New(emit.Options{OutDir: dir, ModuleName: "TEST"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	bk, _ := ref.LookupBook("GEN")
	if err := w.BeginBook(structure.BookMeta{Code: "GEN", OSIS: bk.OSIS, Name: bk.Name}); err != nil {
		t.Fatalf("BeginBook() error: %v", err)
	}
	w.StartChapter("1", "Gen.1")
	ms := verse.Milestone{Number: "1", StartID: "Gen.1.1", IDs: []string{"Gen.1.1"}}
	w.StartVerse(ms)

	// Two notes with the same sequence number violate the notes
	// primary key; the second insert fails.
	note := &notes.Rendered{Kind: entry.KindFootnote, ID: 1, Anchor: "Gen 1:1"}
	w.InlineNote(note)
	w.InlineNote(note)
	w.EndVerse(ms)

	if err := w.Finalize(); err == nil {
		t.Fatal("Finalize() = nil, want error from failed note insert")
	}
}
