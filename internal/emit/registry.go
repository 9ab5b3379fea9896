// Package emit defines the document emitter registry. Each target
// dialect lives in its own subpackage, registers itself in init(), and
// is pulled in by importing internal/emit/all.
package emit

import (
	"sort"
	"sync"

	"github.com/FocuswithJustin/Scriptorium/core/notes"
	"github.com/FocuswithJustin/Scriptorium/core/ref"
	"github.com/FocuswithJustin/Scriptorium/core/structure"
)

// Options carries everything an emitter needs to produce output.
type Options struct {
	// OutDir is the directory the emitter writes into; it exists by
	// the time New is called.
	OutDir string

	// ModuleName is the short module identifier, e.g. "WEB".
	ModuleName string

	// Description is the human-readable module title.
	Description string

	// Language is the ISO 639 code of the text.
	Language string

	// Versification names the verse scheme.
	Versification string

	// Resolver resolves note origin references.
	Resolver ref.Resolver

	// Scope is the note counter scope for this run.
	Scope notes.Scope
}

// Writer is a structure.Emitter that owns its output files. Books are
// fed one at a time through the structure events; Finalize is called
// once after the last book.
type Writer interface {
	structure.Emitter

	// Finalize flushes and closes all output.
	Finalize() error

	// Paths returns the files written, for manifests and packaging.
	Paths() []string
}

// Factory describes one registered target dialect.
type Factory struct {
	// Name is the format name used in control files and on the CLI.
	Name string

	// Description is a one-line summary for the formats listing.
	Description string

	// Combined is true when all books share one output document, which
	// forces serial book order and per-file note counters to make sense.
	Combined bool

	// New builds a Writer for one conversion run.
	New func(opts Options) (Writer, error)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register adds a factory to the registry. Called from the format
// subpackages' init functions; a duplicate name panics because it is a
// programming error, not user input.
func Register(f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[f.Name]; dup {
		panic("emit: duplicate format " + f.Name)
	}
	registry[f.Name] = f
}

// Lookup returns the factory for a format name.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names returns the registered format names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered factories sorted by name.
func List() []Factory {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Factory, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
