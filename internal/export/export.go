// Package export packages signed documents for download: signed-name
// suffixing and ZIP archive assembly.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SignedSuffix is inserted before the .pdf extension of every signed
// output, for single downloads and archive entries alike.
const SignedSuffix = "_assinado"

// SignedName returns the download name for a signed document: the original
// name with SignedSuffix inserted before the .pdf extension. Names without
// a .pdf extension get the suffix plus extension appended.
func SignedName(name string) string {
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, ".pdf") {
		return name[:len(name)-len(ext)] + SignedSuffix + ext
	}
	return name + SignedSuffix + ".pdf"
}

// Entry is one signed document to pack into an archive
type Entry struct {
	Name string // original document name, suffixed on write
	Path string // path of the signed PDF on disk
}

// CreateArchive packs signed documents into a single ZIP at outputPath.
// Entry names are suffixed with SignedName; duplicate names get a numeric
// suffix so no entry silently overwrites another.
func CreateArchive(entries []Entry, outputPath string) error {
	if len(entries) == 0 {
		return fmt.Errorf("no signed documents to export")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	seen := make(map[string]int)
	for _, entry := range entries {
		name := SignedName(entry.Name)
		if n := seen[name]; n > 0 {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s_%d%s", name[:len(name)-len(ext)], n+1, ext)
		}
		seen[SignedName(entry.Name)]++

		if err := addFile(zw, name, entry.Path); err != nil {
			zw.Close()
			os.Remove(outputPath)
			return fmt.Errorf("failed to add %s to archive: %w", entry.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, name, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, in)
	return err
}
