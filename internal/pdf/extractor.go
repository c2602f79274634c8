package pdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/assinafacil/mcp-pdf-signer/internal/anchor"
	"github.com/assinafacil/mcp-pdf-signer/internal/geom"
)

// Fallback page dimensions (US Letter in points) for pages whose MediaBox
// could not be read.
const (
	fallbackPageWidth  = 612.0
	fallbackPageHeight = 792.0
)

// Extractor produces positioned text items from PDF pages. The underlying
// library yields individual text runs, often one per glyph; the extractor
// groups runs on the same row into phrase-level items so that keyword
// matching sees whole labels like "Assinatura do contratante".
type Extractor struct {
	maxFileSize int64
}

// NewExtractor creates an extractor with the given file size limit
func NewExtractor(maxFileSize int64) *Extractor {
	return &Extractor{maxFileSize: maxFileSize}
}

// ExtractDocument extracts positioned text from the first maxPages pages.
// The returned document carries the real page count even when fewer pages
// were scanned. Item coordinates are top-down (origin top-left) in the
// page's point space, so the viewport for detector-derived placements is
// the page size at scale 1.0.
func (e *Extractor) ExtractDocument(path string, maxPages int) (anchor.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return anchor.Document{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()

	dims := e.pageDims(path, totalPages)

	pagesToScan := totalPages
	if maxPages > 0 && pagesToScan > maxPages {
		pagesToScan = maxPages
	}

	pages := make([]anchor.Page, 0, pagesToScan)
	for pageNum := 1; pageNum <= pagesToScan; pageNum++ {
		size := dims[pageNum-1]
		pages = append(pages, anchor.Page{
			Width:  size.Width,
			Height: size.Height,
			Items:  e.extractPage(reader, pageNum, size),
		})
	}

	return anchor.Document{TotalPages: totalPages, Pages: pages}, nil
}

// ExtractPage extracts the positioned text of a single 1-based page
func (e *Extractor) ExtractPage(path string, pageNum int) (*PageLayoutResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	if pageNum < 1 || pageNum > reader.NumPage() {
		return nil, fmt.Errorf("invalid page number %d (document has %d pages)",
			pageNum, reader.NumPage())
	}

	dims := e.pageDims(path, reader.NumPage())
	size := dims[pageNum-1]

	return &PageLayoutResult{
		Path:   path,
		Page:   pageNum,
		Width:  size.Width,
		Height: size.Height,
		Items:  e.extractPage(reader, pageNum, size),
	}, nil
}

// pageDims returns one size per page, falling back to US Letter when pdfcpu
// cannot read the page tree.
func (e *Extractor) pageDims(path string, totalPages int) []geom.Size {
	dims := make([]geom.Size, totalPages)
	for i := range dims {
		dims[i] = geom.Size{Width: fallbackPageWidth, Height: fallbackPageHeight}
	}

	pageDims, err := api.PageDimsFile(path)
	if err != nil {
		return dims
	}

	for i := 0; i < totalPages && i < len(pageDims); i++ {
		if pageDims[i].Width > 0 && pageDims[i].Height > 0 {
			dims[i] = geom.Size{Width: pageDims[i].Width, Height: pageDims[i].Height}
		}
	}
	return dims
}

// extractPage extracts one page's items. Malformed content streams can make
// the parser panic, so the page is hardened with recover; a page that fails
// simply contributes no items.
func (e *Extractor) extractPage(reader *pdf.Reader, pageNum int, size geom.Size) (items []anchor.TextItem) {
	defer func() {
		if recover() != nil {
			items = nil
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	// Top of the page first. Row positions are bottom-up Y coordinates.
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Position > rows[b].Position
	})

	for _, row := range rows {
		items = append(items, mergeRowRuns(row.Content, size.Height)...)
	}
	return items
}

// mergeRowRuns groups a row's text runs into phrase items. Runs separated
// by less than a word gap join the current phrase; a gap wider than the
// font size starts a new item, which keeps table columns and side-by-side
// signature blocks apart.
func mergeRowRuns(runs []pdf.Text, pageHeight float64) []anchor.TextItem {
	var items []anchor.TextItem

	var (
		text     strings.Builder
		startX   float64
		endX     float64
		topY     float64
		height   float64
		building bool
	)

	flush := func() {
		if !building {
			return
		}
		items = append(items, anchor.TextItem{
			Text:   text.String(),
			X:      startX,
			Y:      topY,
			Width:  endX - startX,
			Height: height,
		})
		text.Reset()
		building = false
	}

	for _, run := range runs {
		fontSize := run.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}

		if building {
			gap := run.X - endX
			if gap > fontSize {
				flush()
			} else if gap > 0.25*fontSize {
				text.WriteString(" ")
			}
		}

		if !building {
			building = true
			startX = run.X
			endX = run.X + run.W
			// FontSize approximates the text height; the library does not
			// report glyph extents. Y is the distance from the page top to
			// the run's baseline.
			height = fontSize
			topY = pageHeight - run.Y
		}

		text.WriteString(run.S)
		if run.X+run.W > endX {
			endX = run.X + run.W
		}
		if fontSize > height {
			height = fontSize
		}
	}
	flush()

	return items
}
