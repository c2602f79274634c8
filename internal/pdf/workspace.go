package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Workspace discovers signable PDF files in the configured directory
type Workspace struct {
	maxFileSize int64
	validator   *Validator
}

// NewWorkspace creates a workspace scanner with the specified constraints
func NewWorkspace(maxFileSize int64) *Workspace {
	return &Workspace{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
	}
}

// Scan walks the directory and returns every PDF that passes basic
// validation, optionally filtered by a case-insensitive name query. Files
// that cannot be read are skipped, not reported; one unreadable file must
// not hide the rest of the workspace.
func (w *Workspace) Scan(directory, query string) (*WorkspaceScanResult, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))

	var files []FileInfo
	err = filepath.Walk(absDirectory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries, keep walking
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(info.Name()), ".pdf") {
			return nil
		}
		if err := w.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr // skip invalid files, keep walking
		}
		if query != "" && !strings.Contains(strings.ToLower(info.Name()), query) {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Slice(files, func(a, b int) bool {
		return files[a].Name < files[b].Name
	})

	return &WorkspaceScanResult{
		Directory:  absDirectory,
		Files:      files,
		TotalCount: len(files),
	}, nil
}

// Count returns the number of valid PDFs in the directory
func (w *Workspace) Count(directory string) (int, error) {
	result, err := w.Scan(directory, "")
	if err != nil {
		return 0, err
	}
	return result.TotalCount, nil
}
