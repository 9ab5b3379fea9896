// Package convert drives a conversion run: it loads the normalized entry
// streams named by the control file, runs each book through the
// structural state machine once per requested format, and writes the
// outputs, the run manifest, and the optional tar.xz package.
package convert

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/errors"
	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/ref"
	"github.com/FocuswithJustin/Scriptorium/core/report"
	"github.com/FocuswithJustin/Scriptorium/core/structure"
	"github.com/FocuswithJustin/Scriptorium/internal/archive"
	"github.com/FocuswithJustin/Scriptorium/internal/control"
	"github.com/FocuswithJustin/Scriptorium/internal/emit"
	"github.com/FocuswithJustin/Scriptorium/internal/logging"
	"github.com/FocuswithJustin/Scriptorium/internal/manifest"
)

// Result summarizes one finished run.
type Result struct {
	RunID          string
	Books          int
	Warnings       map[string]int
	UnknownMarkers map[string]int
	Outputs        []string
	ManifestPath   string
	ArchivePath    string
	Duration       time.Duration
}

// Runner executes conversion runs for one control file.
type Runner struct {
	Control *control.File

	// Workers bounds the per-book fan-out. Zero means GOMAXPROCS.
	Workers int

	// Resolver overrides the built-in book table, mainly for tests.
	Resolver ref.Resolver
}

// Run converts every requested book into every requested format.
func (rn *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.LoggerFromContext(ctx)

	cf := rn.Control
	if err := os.MkdirAll(cf.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	books, err := rn.loadBooks()
	if err != nil {
		return nil, err
	}

	resolver := rn.Resolver
	if resolver == nil {
		resolver = &ref.TableResolver{}
	}
	scope := notes.ScopePerBook
	if cf.NoteScope == "file" {
		scope = notes.ScopePerFile
	}

	var perBook, combined []emit.Factory
	for _, name := range cf.Formats {
		f, ok := emit.Lookup(name)
		if !ok {
			return nil, errors.NewNotFound("format", name)
		}
		if f.Combined {
			combined = append(combined, f)
		} else {
			perBook = append(perBook, f)
		}
	}

	opts := emit.Options{
		OutDir:        cf.Output.Dir,
		ModuleName:    cf.Module.Name,
		Description:   cf.Module.Description,
		Language:      cf.Module.Language,
		Versification: cf.Module.Versification,
		Resolver:      resolver,
		Scope:         scope,
	}

	summary := report.NewSummary()
	res := &Result{RunID: runID, Books: len(books)}
	man := manifest.New(runID, manifest.ModuleInfo{
		Name:          cf.Module.Name,
		Description:   cf.Module.Description,
		Language:      cf.Module.Language,
		Versification: cf.Module.Versification,
	})

	if err := rn.runPerBook(ctx, books, perBook, opts, summary, man); err != nil {
		return nil, err
	}
	if err := rn.runCombined(ctx, books, combined, opts, summary, man, len(perBook) == 0); err != nil {
		return nil, err
	}
	sortOutputs(man)

	for _, b := range books {
		rec := manifest.BookRecord{Code: b.Code, OSIS: ref.OSISAbbrev(b.Code), Entries: len(b.Entries)}
		man.Books = append(man.Books, rec)
	}
	man.Warnings = summary.WarningCounts()
	if markers := summary.UnknownMarkerSet(); len(markers) > 0 {
		man.Attributes = map[string]any{"unknown_markers": markers}
	}
	summary.LogUnknownMarkers(log)

	manPath, err := man.Write(cf.Output.Dir)
	if err != nil {
		return nil, err
	}
	res.ManifestPath = manPath
	for _, rec := range man.Outputs {
		res.Outputs = append(res.Outputs, rec.Path)
	}
	res.Warnings = summary.WarningCounts()
	res.UnknownMarkers = summary.UnknownMarkerSet()

	if cf.Output.Package {
		archivePath, err := archive.PackageOutputs(cf.Output.Dir, cf.Module.Name)
		if err != nil {
			return nil, fmt.Errorf("package outputs: %w", err)
		}
		res.ArchivePath = archivePath
	}

	res.Duration = time.Since(start)
	logging.RunSummary(runID, res.Books, totalWarnings(res.Warnings), res.Duration)
	return res, nil
}

// loadBooks discovers and loads the entry streams, keeping only the
// books the control file asks for, in discovery (filename) order.
func (rn *Runner) loadBooks() ([]*entry.Book, error) {
	paths, err := entry.DiscoverBooks(rn.Control.InputDir)
	if err != nil {
		return nil, err
	}
	var books []*entry.Book
	for _, p := range paths {
		b, err := entry.LoadBook(p)
		if err != nil {
			return nil, err
		}
		if !rn.Control.WantsBook(b.Code) {
			continue
		}
		books = append(books, b)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("control file selects no books from %s", rn.Control.InputDir)
	}
	return books, nil
}

func (rn *Runner) workers() int {
	if rn.Workers > 0 {
		return rn.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// runPerBook converts books into the per-book-file formats. With
// per-book note counters every (book, format) pass is independent, so
// the books fan out across a bounded worker pool. A per-file counter
// stream must see the books in order, so that policy forces the serial
// path.
func (rn *Runner) runPerBook(ctx context.Context, books []*entry.Book, factories []emit.Factory, opts emit.Options, summary *report.Summary, man *manifest.Manifest) error {
	if len(factories) == 0 {
		return nil
	}
	log := logging.LoggerFromContext(ctx)

	serial := opts.Scope == notes.ScopePerFile

	var mu sync.Mutex
	var firstErr error
	record := func(f emit.Factory, w emit.Writer, rep *report.Report, primary bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err == nil && primary {
			// Defects are input-driven, so one format's pass stands in
			// for the book in the summary.
			summary.Add(rep)
		}
		if err == nil && w != nil {
			for _, p := range w.Paths() {
				if addErr := man.AddFile(opts.OutDir, p, f.Name); addErr != nil && firstErr == nil {
					firstErr = addErr
				}
			}
		}
	}

	runOne := func(b *entry.Book) {
		for i, f := range factories {
			w, err := f.New(opts)
			if err != nil {
				record(f, nil, nil, false, fmt.Errorf("%s: %w", f.Name, err))
				return
			}
			rep := report.New(b.Code, log)
			err = runBook(b, w, opts, rep)
			if err == nil {
				err = w.Finalize()
			}
			if err != nil {
				logging.EmitterError(f.Name, b.Code, err)
				err = fmt.Errorf("%s %s: %w", f.Name, b.Code, err)
			} else {
				logging.BookEvent("book_converted", b.Code, f.Name)
			}
			record(f, w, rep, i == 0, err)
		}
	}

	if serial {
		// One counter stream across all books per format.
		for fi, f := range factories {
			w, err := f.New(opts)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			nctx := notes.NewContext(opts.Scope)
			for _, b := range books {
				rep := report.New(b.Code, log)
				if err := runBookWith(b, w, opts, rep, nctx); err != nil {
					return fmt.Errorf("%s %s: %w", f.Name, b.Code, err)
				}
				if fi == 0 {
					summary.Add(rep)
				}
			}
			if err := w.Finalize(); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			for _, p := range w.Paths() {
				if err := man.AddFile(opts.OutDir, p, f.Name); err != nil {
					return err
				}
			}
		}
		return nil
	}

	jobs := make(chan *entry.Book)
	var wg sync.WaitGroup
	for n := 0; n < rn.workers(); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				runOne(b)
			}
		}()
	}
	for _, b := range books {
		jobs <- b
	}
	close(jobs)
	wg.Wait()
	return firstErr
}

// runCombined converts books into the single-document formats. These
// share one output file, so the books march through serially in canon
// (discovery) order.
func (rn *Runner) runCombined(ctx context.Context, books []*entry.Book, factories []emit.Factory, opts emit.Options, summary *report.Summary, man *manifest.Manifest, primary bool) error {
	log := logging.LoggerFromContext(ctx)
	for fi, f := range factories {
		w, err := f.New(opts)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		nctx := notes.NewContext(opts.Scope)
		for _, b := range books {
			rep := report.New(b.Code, log)
			if err := runBookWith(b, w, opts, rep, nctx); err != nil {
				logging.EmitterError(f.Name, b.Code, err)
				return fmt.Errorf("%s %s: %w", f.Name, b.Code, err)
			}
			logging.BookEvent("book_converted", b.Code, f.Name)
			if primary && fi == 0 {
				summary.Add(rep)
			}
		}
		if err := w.Finalize(); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		for _, p := range w.Paths() {
			if err := man.AddFile(opts.OutDir, p, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// runBook runs one book through one emitter with a fresh note context.
func runBook(b *entry.Book, w emit.Writer, opts emit.Options, rep *report.Report) error {
	return runBookWith(b, w, opts, rep, notes.NewContext(opts.Scope))
}

func runBookWith(b *entry.Book, w emit.Writer, opts emit.Options, rep *report.Report, nctx *notes.Context) error {
	bk, ok := ref.LookupBook(b.Code)
	meta := structure.BookMeta{Code: b.Code, Rep: rep, Title: runningHeader(b)}
	if ok {
		meta.OSIS = bk.OSIS
		meta.Name = bk.Name
	} else {
		meta.OSIS = b.Code
		meta.Name = ref.AssumedName(b.Code)
	}
	renderer := &notes.Renderer{Resolver: opts.Resolver}
	return structure.New(meta, w, renderer, nctx, rep).Run(b)
}

// runningHeader returns the book's running header (the "h" line), taken
// before the marker walk because emitters receive it in BeginBook.
func runningHeader(b *entry.Book) string {
	for i := range b.Entries {
		if b.Entries[i].Marker == "h" {
			if t := b.Entries[i].CleanText; t != "" {
				return t
			}
			return b.Entries[i].Text
		}
	}
	return ""
}

func totalWarnings(byBook map[string]int) int {
	n := 0
	for _, c := range byBook {
		n += c
	}
	return n
}

// sortOutputs keeps manifest output order stable regardless of worker
// completion order.
func sortOutputs(man *manifest.Manifest) {
	sort.Slice(man.Outputs, func(i, j int) bool {
		if man.Outputs[i].Format != man.Outputs[j].Format {
			return man.Outputs[i].Format < man.Outputs[j].Format
		}
		return man.Outputs[i].Path < man.Outputs[j].Path
	})
}
