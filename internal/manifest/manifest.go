// Package manifest records what a conversion run produced: every output
// file with its size and checksums, plus the module identity and the
// per-book defect counts. The manifest is written next to the outputs as
// manifest.json so a consumer can verify a delivery without re-running
// the conversion.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Version is the current manifest format version.
const Version = "1.0.0"

// Manifest is the top-level structure of manifest.json.
type Manifest struct {
	ManifestVersion string           `json:"manifest_version"`
	CreatedAt       string           `json:"created_at"`
	RunID           string           `json:"run_id"`
	Module          ModuleInfo       `json:"module"`
	Outputs         []FileRecord     `json:"outputs"`
	Books           []BookRecord     `json:"books,omitempty"`
	Warnings        map[string]int   `json:"warnings,omitempty"`
	Attributes      map[string]any   `json:"attributes,omitempty"`
}

// ModuleInfo identifies the converted module.
type ModuleInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
	Versification string `json:"versification,omitempty"`
}

// FileRecord describes one output file.
type FileRecord struct {
	Path      string `json:"path"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
	BLAKE3    string `json:"blake3"`
}

// BookRecord summarizes one converted book.
type BookRecord struct {
	Code     string `json:"code"`
	OSIS     string `json:"osis"`
	Entries  int    `json:"entries"`
	Warnings int    `json:"warnings,omitempty"`
}

// New creates a manifest with the version and timestamp filled in.
func New(runID string, mod ModuleInfo) *Manifest {
	return &Manifest{
		ManifestVersion: Version,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		RunID:           runID,
		Module:          mod,
	}
}

// AddFile hashes the file at path and appends its record. The recorded
// path is relative to dir so the manifest stays valid when the output
// directory moves.
func (m *Manifest) AddFile(dir, path, format string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("hash output %s: %w", path, err)
	}
	defer f.Close()

	sh := sha256.New()
	bh := blake3.New()
	size, err := io.Copy(io.MultiWriter(sh, bh), f)
	if err != nil {
		return fmt.Errorf("hash output %s: %w", path, err)
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	m.Outputs = append(m.Outputs, FileRecord{
		Path:      filepath.ToSlash(rel),
		Format:    format,
		SizeBytes: size,
		SHA256:    hex.EncodeToString(sh.Sum(nil)),
		BLAKE3:    hex.EncodeToString(bh.Sum(nil)),
	})
	return nil
}

// ToJSON serializes the manifest to indented JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Write serializes the manifest into dir as manifest.json.
func (m *Manifest) Write(dir string) (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Parse parses a manifest from JSON.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Verify re-hashes every recorded output under dir and returns the
// relative paths that are missing or whose SHA-256 no longer matches.
func (m *Manifest) Verify(dir string) ([]string, error) {
	var bad []string
	for _, rec := range m.Outputs {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rec.Path)))
		if err != nil {
			if os.IsNotExist(err) {
				bad = append(bad, rec.Path)
				continue
			}
			return nil, err
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != rec.SHA256 {
			bad = append(bad, rec.Path)
		}
	}
	return bad, nil
}
