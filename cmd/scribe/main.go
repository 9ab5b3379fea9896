// Command scribe converts normalized Bible entry streams into target
// document formats: OSIS, USFM, SQLite, MediaWiki, HTML, and Markdown.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/Scriptorium/internal/archive"
	"github.com/FocuswithJustin/Scriptorium/internal/control"
	"github.com/FocuswithJustin/Scriptorium/internal/convert"
	"github.com/FocuswithJustin/Scriptorium/internal/emit"
	"github.com/FocuswithJustin/Scriptorium/internal/logging"
	"github.com/FocuswithJustin/Scriptorium/internal/manifest"

	// Register the built-in emitters.
	_ "github.com/FocuswithJustin/Scriptorium/internal/emit/all"
)

const version = "0.2.0"

// CLI defines the command-line interface for scribe.
var CLI struct {
	LogLevel  string `name:"log-level" enum:"debug,info,warn,error" default:"info" help:"Log level"`
	LogFormat string `name:"log-format" enum:"text,json" default:"text" help:"Log output format"`

	Convert ConvertCmd `cmd:"" help:"Convert entry streams per a control file"`
	Formats FormatsCmd `cmd:"" help:"List the registered target formats"`
	Verify  VerifyCmd  `cmd:"" help:"Verify an output directory against its manifest"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

// ConvertCmd converts the books named by a control file.
type ConvertCmd struct {
	Control string `arg:"" help:"Path to the YAML control file" type:"existingfile"`

	Out     string   `help:"Override the output directory" type:"path"`
	Formats []string `help:"Override the format list"`
	Books   []string `help:"Override the book list"`
	Package bool     `help:"Package the outputs as <module>.tar.xz"`
	Workers int      `help:"Per-book worker count (0 = number of CPUs)"`
}

func (c *ConvertCmd) Run() error {
	initLogging()

	cf, err := control.Load(c.Control)
	if err != nil {
		return err
	}
	if c.Out != "" {
		cf.Output.Dir = c.Out
	}
	if len(c.Formats) > 0 {
		cf.Formats = c.Formats
	}
	if len(c.Books) > 0 {
		for i, b := range c.Books {
			c.Books[i] = strings.ToUpper(b)
		}
		cf.Books = c.Books
	}
	if c.Package {
		cf.Output.Package = true
	}

	runner := &convert.Runner{Control: cf, Workers: c.Workers}
	res, err := runner.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Converted %d book(s) in %s\n", res.Books, res.Duration.Round(time.Millisecond))
	fmt.Printf("  Run: %s\n", res.RunID)
	for _, out := range res.Outputs {
		fmt.Printf("  %s\n", out)
	}
	fmt.Printf("  Manifest: %s\n", res.ManifestPath)
	if res.ArchivePath != "" {
		fmt.Printf("  Package: %s\n", res.ArchivePath)
	}
	if n := len(res.UnknownMarkers); n > 0 {
		fmt.Printf("  Unknown markers: %d distinct (see log)\n", n)
	}
	return nil
}

// FormatsCmd lists the registered target formats.
type FormatsCmd struct{}

func (c *FormatsCmd) Run() error {
	fmt.Println("Registered formats:")
	for _, f := range emit.List() {
		layout := "per-book files"
		if f.Combined {
			layout = "single document"
		}
		fmt.Printf("  %-10s %s (%s)\n", f.Name, f.Description, layout)
	}
	return nil
}

// VerifyCmd verifies an output directory against its manifest:
// checksums for every file, plus XML well-formedness of OSIS documents.
type VerifyCmd struct {
	Dir string `arg:"" help:"Output directory containing manifest.json" type:"existingdir"`
}

func (c *VerifyCmd) Run() error {
	initLogging()

	man, err := manifest.Load(c.Dir)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	fmt.Printf("Manifest: %s\n", filepath.Join(c.Dir, "manifest.json"))
	fmt.Printf("  Module: %s\n", man.Module.Name)
	fmt.Printf("  Run: %s\n", man.RunID)
	fmt.Printf("  Outputs: %d\n", len(man.Outputs))

	bad, err := man.Verify(c.Dir)
	if err != nil {
		return err
	}
	for _, p := range bad {
		fmt.Printf("  [FAIL] %s: missing or checksum mismatch\n", p)
	}

	xmlErrors := 0
	for _, rec := range man.Outputs {
		if rec.Format != "osis" {
			continue
		}
		path := filepath.Join(c.Dir, filepath.FromSlash(rec.Path))
		f, err := os.Open(path)
		if err != nil {
			continue // already reported by the checksum pass
		}
		_, parseErr := xmlquery.Parse(f)
		f.Close()
		if parseErr != nil {
			fmt.Printf("  [FAIL] %s: malformed XML: %v\n", rec.Path, parseErr)
			xmlErrors++
		} else {
			fmt.Printf("  [OK]   %s: well-formed XML\n", rec.Path)
		}
	}

	archiveErrors := 0
	archivePath := filepath.Join(c.Dir, man.Module.Name+".tar.xz")
	if _, statErr := os.Stat(archivePath); statErr == nil {
		archiveErrors = verifyArchive(archivePath, man)
	}

	if len(bad) > 0 || xmlErrors > 0 || archiveErrors > 0 {
		return fmt.Errorf("verification failed: %d error(s)", len(bad)+xmlErrors+archiveErrors)
	}
	fmt.Println("Verification passed!")
	return nil
}

// verifyArchive checks that a packaged output bundle contains every
// file the manifest names, and returns the number of failures.
func verifyArchive(path string, man *manifest.Manifest) int {
	names, err := archive.List(path)
	if err != nil {
		fmt.Printf("  [FAIL] %s: %v\n", filepath.Base(path), err)
		return 1
	}
	have := make(map[string]bool, len(names))
	for _, name := range names {
		// entries are stored under the bundle directory
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		have[name] = true
	}
	failures := 0
	want := []string{"manifest.json"}
	for _, rec := range man.Outputs {
		want = append(want, rec.Path)
	}
	for _, name := range want {
		if !have[name] {
			fmt.Printf("  [FAIL] %s: missing from archive\n", name)
			failures++
		}
	}

	// The bundled manifest must describe the same run as the one on disk.
	if data, err := archive.ReadFile(path, "manifest.json"); err != nil {
		fmt.Printf("  [FAIL] %s: read bundled manifest: %v\n", filepath.Base(path), err)
		failures++
	} else if bundled, err := manifest.Parse(data); err != nil {
		fmt.Printf("  [FAIL] %s: bundled manifest: %v\n", filepath.Base(path), err)
		failures++
	} else if bundled.RunID != man.RunID {
		fmt.Printf("  [FAIL] %s: bundled manifest is from run %s, directory has %s\n",
			filepath.Base(path), bundled.RunID, man.RunID)
		failures++
	}

	if failures == 0 {
		fmt.Printf("  [OK]   %s: all %d manifest file(s) present\n", filepath.Base(path), len(want))
	}
	return failures
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("scribe %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("scribe"),
		kong.Description("Scriptorium - Bible entry stream to document format converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
