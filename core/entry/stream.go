package entry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/errors"
)

// LoadBook reads a normalized book stream from a JSON-lines file.
// The book code is taken from the filename (e.g. GEN.jsonl -> GEN).
// Blank lines are skipped. A malformed line is a fatal load error:
// content defects degrade gracefully downstream, but an unreadable
// stream is a resource-level failure surfaced to the caller unchanged.
func LoadBook(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	code := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	book, err := ReadBook(f, code)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return book, nil
}

// ReadBook decodes a JSON-lines entry stream into a Book.
func ReadBook(r io.Reader, code string) (*Book, error) {
	book := &Book{Code: code}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e LineEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, &errors.ParseError{
				Format:  "entry stream",
				Message: fmt.Sprintf("line %d: invalid entry", lineNo),
				Err:     err,
			}
		}
		if e.Marker == "" {
			return nil, &errors.ParseError{
				Format:  "entry stream",
				Message: fmt.Sprintf("line %d: entry has no marker", lineNo),
			}
		}
		book.Entries = append(book.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entry stream: %w", err)
	}

	return book, nil
}

// DiscoverBooks finds all .jsonl entry streams in a directory, sorted by
// filename. Returns the paths; loading is left to the caller so books can
// be distributed across workers.
func DiscoverBooks(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no .jsonl entry streams found in %s", dir)
	}
	return matches, nil
}
