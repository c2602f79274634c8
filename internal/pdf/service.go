// Package pdf provides the document collaborators for the signing workflow:
// validation, positioned text extraction, page geometry and workspace
// discovery. Text extraction is handled by ledongthuc/pdf, page geometry
// and structural checks by pdfcpu.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/assinafacil/mcp-pdf-signer/internal/anchor"
	"github.com/assinafacil/mcp-pdf-signer/internal/geom"
)

// Service orchestrates the PDF components used by the signing workflow
type Service struct {
	maxFileSize int64
	validator   *Validator
	extractor   *Extractor
	workspace   *Workspace
}

// NewService creates a PDF service with all components
func NewService(maxFileSize int64) *Service {
	return &Service{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
		extractor:   NewExtractor(maxFileSize),
		workspace:   NewWorkspace(maxFileSize),
	}
}

// DocumentInfo validates a PDF and returns its basic facts
func (s *Service) DocumentInfo(path string) (*DocumentInfo, error) {
	if err := s.validator.ValidateFile(path); err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}

	return &DocumentInfo{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      fileInfo.Size(),
		PageCount: pageCount,
	}, nil
}

// ExtractDocument extracts positioned text from up to maxPages pages
func (s *Service) ExtractDocument(path string, maxPages int) (anchor.Document, error) {
	return s.extractor.ExtractDocument(path, maxPages)
}

// PageLayout returns the positioned text of a single 1-based page
func (s *Service) PageLayout(path string, pageNum int) (*PageLayoutResult, error) {
	if err := s.validator.ValidateFile(path); err != nil {
		return nil, err
	}
	return s.extractor.ExtractPage(path, pageNum)
}

// PageSize returns the dimensions of a 0-based page in points
func (s *Service) PageSize(path string, pageIndex int) (geom.Size, error) {
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return geom.Size{}, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if pageIndex < 0 || pageIndex >= len(dims) {
		return geom.Size{}, fmt.Errorf("invalid page index %d (document has %d pages)",
			pageIndex, len(dims))
	}
	return geom.Size{Width: dims[pageIndex].Width, Height: dims[pageIndex].Height}, nil
}

// ScanWorkspace lists the signable PDFs under the given directory
func (s *Service) ScanWorkspace(directory, query string) (*WorkspaceScanResult, error) {
	return s.workspace.Scan(directory, query)
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(path string) bool {
	return s.validator.IsValidPDF(path)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}
