// Package archive packages a conversion run's outputs into a tar.xz
// bundle and reads such bundles back for verification.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Reader iterates the entries of a tar.xz bundle.
type Reader struct {
	*tar.Reader
	file *os.File
}

// NewReader opens a tar.xz bundle produced by PackageOutputs.
func NewReader(path string) (*Reader, error) {
	if !strings.HasSuffix(path, ".tar.xz") {
		return nil, fmt.Errorf("unsupported archive format: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	xzr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return &Reader{Reader: tar.NewReader(xzr), file: f}, nil
}

// Close closes the underlying archive file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// Walk opens an archive and iterates through its entries.
func Walk(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// List returns the entry names in the archive in order.
func List(path string) ([]string, error) {
	var names []string
	err := Walk(path, func(header *tar.Header, _ io.Reader) (bool, error) {
		names = append(names, header.Name)
		return false, nil
	})
	return names, err
}

// ReadFile reads a specific file from the archive. The leading bundle
// directory is ignored so callers name files the way the output
// directory did.
func ReadFile(archivePath, filename string) ([]byte, error) {
	var content []byte
	err := Walk(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		name := header.Name
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if name == filename || header.Name == filename {
			var err error
			content, err = io.ReadAll(r)
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("file not found: %s", filename)
	}
	return content, nil
}
