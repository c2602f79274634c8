package pdf

import (
	"time"

	"github.com/assinafacil/mcp-pdf-signer/internal/anchor"
)

// FileInfo describes a PDF file found in the workspace
type FileInfo struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
}

// DocumentInfo holds the basic facts about a registered document
type DocumentInfo struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	PageCount int    `json:"page_count"`
}

// PageLayoutResult is the positioned text of a single page, used by clients
// to place a signature manually. Coordinates are top-down in the page's
// point space; Width and Height are the page dimensions.
type PageLayoutResult struct {
	Path   string            `json:"path"`
	Page   int               `json:"page"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
	Items  []anchor.TextItem `json:"items"`
}

// WorkspaceScanResult lists the signable PDFs in a directory
type WorkspaceScanResult struct {
	Directory  string     `json:"directory"`
	Files      []FileInfo `json:"files"`
	TotalCount int        `json:"total_count"`
}
