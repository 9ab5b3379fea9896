// Package sqlite emits a relational module: books, verses, and notes
// tables in one SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/structure"
	"github.com/FocuswithJustin/Scriptorium/core/verse"
	"github.com/FocuswithJustin/Scriptorium/internal/emit"
	sqlitedrv "github.com/FocuswithJustin/Scriptorium/internal/sqlite"
)

// Register registers this format with the emitter registry.
func Register() {
	emit.Register(emit.Factory{
		Name:        "sqlite",
		Description: "SQLite database with books, verses, and notes tables",
		Combined:    true,
		New:         New,
	})
}

func init() {
	Register()
}

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE books (
	code TEXT PRIMARY KEY,
	osis TEXT NOT NULL,
	name TEXT NOT NULL,
	ord  INTEGER NOT NULL
);
CREATE TABLE verses (
	book     TEXT NOT NULL,
	chapter  TEXT NOT NULL,
	verse    TEXT NOT NULL,
	start_id TEXT NOT NULL,
	text     TEXT NOT NULL,
	PRIMARY KEY (book, chapter, verse)
);
CREATE TABLE notes (
	book    TEXT NOT NULL,
	chapter TEXT NOT NULL,
	verse   TEXT NOT NULL,
	kind    TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	anchor  TEXT,
	osis_ref TEXT,
	body    TEXT NOT NULL,
	PRIMARY KEY (book, kind, seq)
);
`

type emitter struct {
	db   *sql.DB
	tx   *sql.Tx
	path string
	meta structure.BookMeta
	ord  int

	chapter string
	verseN  string
	verseID string

	// cur accumulates the current verse text between milestones.
	cur     strings.Builder
	inVerse bool

	// err holds the first failed statement. Inserts run inside event
	// callbacks that cannot return errors, so the failure is surfaced
	// at Finalize instead of committing a partial module.
	err error
}

func (e *emitter) fail(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}

// New creates the database, applies the schema, and opens the run
// transaction.
func New(opts emit.Options) (emit.Writer, error) {
	path := filepath.Join(opts.OutDir, opts.ModuleName+".sqlite3")
	db, err := sqlitedrv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open module database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create module schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, err
	}
	e := &emitter{db: db, tx: tx, path: path}
	for k, v := range map[string]string{
		"name":          opts.ModuleName,
		"description":   opts.Description,
		"language":      opts.Language,
		"versification": opts.Versification,
	} {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *emitter) BeginBook(meta structure.BookMeta) error {
	e.meta = meta
	e.ord++
	_, err := e.tx.Exec(`INSERT INTO books (code, osis, name, ord) VALUES (?, ?, ?, ?)`,
		meta.Code, meta.OSIS, meta.Name, e.ord)
	return err
}

// Containers and headings have no relational shape; only the canonical
// verse text and its annotations are stored.
func (e *emitter) OpenContainer(t structure.ContainerType, attrs structure.Attrs) {}
func (e *emitter) CloseContainer(t structure.ContainerType)                       {}
func (e *emitter) Heading(marker string, level int, text string)                  {}
func (e *emitter) ListItem(level int, text string)                                {}
func (e *emitter) Break()                                                         {}

func (e *emitter) StartChapter(number, osisRef string) {
	e.chapter = number
}

func (e *emitter) EndChapter(osisRef string) {}

func (e *emitter) StartVerse(m verse.Milestone) {
	e.verseN = m.Number
	e.verseID = m.StartID
	e.cur.Reset()
	e.inVerse = true
}

func (e *emitter) EndVerse(m verse.Milestone) {
	text := e.cur.String()
	e.cur.Reset()
	e.inVerse = false
	_, err := e.tx.Exec(`INSERT OR REPLACE INTO verses (book, chapter, verse, start_id, text) VALUES (?, ?, ?, ?, ?)`,
		e.meta.Code, e.chapter, e.verseN, m.StartID, text)
	if err != nil {
		e.fail(fmt.Errorf("insert verse %s %s:%s: %w", e.meta.Code, e.chapter, e.verseN, err))
	}
}

func (e *emitter) Text(s string) {
	if !e.inVerse {
		return
	}
	if e.cur.Len() > 0 {
		e.cur.WriteByte(' ')
	}
	e.cur.WriteString(s)
}

// InlineNote stores the note row immediately and leaves a short label
// marker in the verse text.
func (e *emitter) InlineNote(r *notes.Rendered) string {
	osisRef := ""
	if r.OriginRef != nil {
		osisRef = r.OriginRef.OSISID()
	}
	kind := "footnote"
	if r.Kind == entry.KindCrossRef {
		kind = "crossref"
	}
	_, err := e.tx.Exec(`INSERT INTO notes (book, chapter, verse, kind, seq, anchor, osis_ref, body) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.meta.Code, e.chapter, e.verseN, kind, r.ID, r.Anchor, osisRef, r.Body())
	if err != nil {
		e.fail(fmt.Errorf("insert note %s%d at %s %s:%s: %w", kind, r.ID, e.meta.Code, e.chapter, e.verseN, err))
	}
	return "[" + r.Label() + "]"
}

func (e *emitter) EndBook(endnotes []notes.EndNote) error {
	return nil
}

// Finalize commits the run transaction and closes the database. A
// statement failure recorded during emission rolls the run back
// instead: a partial module is worse than no module.
func (e *emitter) Finalize() error {
	if e.err != nil {
		e.tx.Rollback()
		e.db.Close()
		return e.err
	}
	if err := e.tx.Commit(); err != nil {
		e.db.Close()
		return err
	}
	return e.db.Close()
}

func (e *emitter) Paths() []string {
	return []string{e.path}
}
