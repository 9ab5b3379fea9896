package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// CreateTarXz creates a tar.xz archive from a source directory. The
// baseDir parameter is the directory name entries carry inside the
// archive, so extracting never scatters files into the working
// directory.
func CreateTarXz(srcDir, dstPath, baseDir string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	outFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer outFile.Close()

	xw, err := xz.NewWriter(outFile)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	defer xw.Close()

	tw := tar.NewWriter(xw)
	defer tw.Close()

	now := time.Now()

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		// The archive must not contain itself.
		if path == dstPath {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = baseDir + "/" + filepath.ToSlash(relPath)
		if info.IsDir() {
			header.Name += "/"
		}
		header.ModTime = now

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	return nil
}

// PackageOutputs archives a run's output directory as
// <dir>/<moduleName>.tar.xz and returns the archive path.
func PackageOutputs(dir, moduleName string) (string, error) {
	dst := filepath.Join(dir, moduleName+".tar.xz")
	if err := CreateTarXz(dir, dst, moduleName); err != nil {
		return "", err
	}
	return dst, nil
}
