// Package control loads the conversion control file: module metadata,
// book selection, target formats, and output policy for one run.
package control

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/Scriptorium/core/errors"
	"github.com/FocuswithJustin/Scriptorium/core/ref"
)

// Module describes the work being converted.
type Module struct {
	// Name is the short module identifier, e.g. "WEB".
	Name string `yaml:"name"`

	// Description is the human-readable title.
	Description string `yaml:"description"`

	// Language is the ISO 639 code of the text.
	Language string `yaml:"language"`

	// Versification names the verse scheme, e.g. "KJV".
	Versification string `yaml:"versification"`
}

// Output controls where and how results are written.
type Output struct {
	// Dir is the output directory; created if missing.
	Dir string `yaml:"dir"`

	// Package produces a tar.xz archive of each format's output tree.
	Package bool `yaml:"package"`
}

// File is the parsed control file.
type File struct {
	Module Module `yaml:"module"`

	// InputDir holds the normalized per-book entry streams.
	InputDir string `yaml:"input_dir"`

	// Books limits conversion to the listed book codes; empty means
	// every book found in InputDir.
	Books []string `yaml:"books"`

	// Formats lists the target dialects to emit.
	Formats []string `yaml:"formats"`

	// NoteScope is "book" (counters restart per book) or "file"
	// (counters run across the whole output document). Defaults to
	// "book".
	NoteScope string `yaml:"note_scope"`

	Output Output `yaml:"output"`
}

// Load reads and validates a control file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read control file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates control file content.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse control file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	f.applyDefaults()
	return &f, nil
}

func (f *File) validate() error {
	if f.Module.Name == "" {
		return errors.NewValidation("module.name", "is required")
	}
	if f.InputDir == "" {
		return errors.NewValidation("input_dir", "is required")
	}
	if len(f.Formats) == 0 {
		return errors.NewValidation("formats", "at least one target format is required")
	}
	switch f.NoteScope {
	case "", "book", "file":
	default:
		return errors.NewValidation("note_scope",
			fmt.Sprintf("unknown scope %q (want book or file)", f.NoteScope))
	}
	for _, code := range f.Books {
		if _, ok := ref.LookupBook(strings.ToUpper(code)); !ok {
			return errors.NewValidation("books", fmt.Sprintf("unknown book code %q", code))
		}
	}
	return nil
}

func (f *File) applyDefaults() {
	if f.NoteScope == "" {
		f.NoteScope = "book"
	}
	if f.Output.Dir == "" {
		f.Output.Dir = "out"
	}
	if f.Module.Versification == "" {
		f.Module.Versification = "KJV"
	}
	if f.Module.Language == "" {
		f.Module.Language = "en"
	}
	for i, code := range f.Books {
		f.Books[i] = strings.ToUpper(code)
	}
}

// WantsBook reports whether the given book code is selected for this run.
func (f *File) WantsBook(code string) bool {
	if len(f.Books) == 0 {
		return true
	}
	code = strings.ToUpper(code)
	for _, b := range f.Books {
		if b == code {
			return true
		}
	}
	return false
}
