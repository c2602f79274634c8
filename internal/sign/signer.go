// Package sign stamps a signature image onto a PDF page at a confirmed
// placement. The placement arrives in UI viewport space and is converted to
// PDF page space before stamping; the stamp itself is a pdfcpu image
// watermark with absolute positioning.
package sign

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/assinafacil/mcp-pdf-signer/internal/geom"
	"github.com/assinafacil/mcp-pdf-signer/internal/signature"
)

// Request describes one signing operation
type Request struct {
	InputPath  string
	OutputPath string
	Placement  geom.Placement
	PageSize   geom.Size
	Signature  *signature.Signature
}

// Result reports where the signature landed in PDF page space
type Result struct {
	OutputPath string    `json:"output_path"`
	PageIndex  int       `json:"page_index"`
	PDFRect    geom.Rect `json:"pdf_rect"`
}

// Signer embeds signature images into PDF files
type Signer struct{}

// NewSigner creates a signer
func NewSigner() *Signer {
	return &Signer{}
}

// Sign writes a copy of the input PDF with the signature image stamped at
// the placement's position. The input file is never modified; a failed
// stamp removes the partial output.
func (s *Signer) Sign(req Request) (*Result, error) {
	if req.Signature == nil || len(req.Signature.Data) == 0 {
		return nil, fmt.Errorf("no signature image configured")
	}

	pageCount, err := api.PageCountFile(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}
	if req.Placement.PageIndex < 0 || req.Placement.PageIndex >= pageCount {
		return nil, fmt.Errorf("page index %d out of range (document has %d pages)",
			req.Placement.PageIndex, pageCount)
	}

	pdfRect := geom.ToPDFRect(req.Placement.UIRect, req.Placement.ViewportSize, req.PageSize)

	imagePath, cleanup, err := s.writeImageFile(req.Signature)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := copyFile(req.InputPath, req.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to copy PDF: %w", err)
	}

	if err := s.stamp(req.OutputPath, imagePath, req.Placement.PageIndex, pdfRect, req.Signature); err != nil {
		os.Remove(req.OutputPath)
		return nil, err
	}

	return &Result{
		OutputPath: req.OutputPath,
		PageIndex:  req.Placement.PageIndex,
		PDFRect:    pdfRect,
	}, nil
}

// stamp applies the image watermark to a single page. The watermark is
// anchored at the bottom-left corner and offset to the rect's position;
// pdfcpu scales images uniformly, so the stamp is fitted to the placement
// width.
func (s *Signer) stamp(pdfPath, imagePath string, pageIndex int, pdfRect geom.Rect,
	sig *signature.Signature,
) error {
	scale := 1.0
	if sig.Width > 0 && pdfRect.Width > 0 {
		scale = pdfRect.Width / float64(sig.Width)
	}
	// pdfcpu accepts scale factors up to 1; a placement wider than the
	// image in points just keeps the image at natural size.
	if scale > 1 {
		scale = 1
	}

	desc := fmt.Sprintf("scale:%.4f abs, pos:bl, rot:0, op:1", scale)
	wm, err := pdfcpu.ParseImageWatermarkDetails(imagePath, desc, true, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse image watermark: %w", err)
	}

	wm.Dx = pdfRect.X
	wm.Dy = pdfRect.Y

	config := model.NewDefaultConfiguration()
	pages := []string{strconv.Itoa(pageIndex + 1)}
	if err := api.AddWatermarksFile(pdfPath, "", pages, wm, config); err != nil {
		return fmt.Errorf("failed to apply signature: %w", err)
	}
	return nil
}

// writeImageFile materializes the signature bytes as a temp file for
// pdfcpu, which resolves image watermarks by path.
func (s *Signer) writeImageFile(sig *signature.Signature) (string, func(), error) {
	ext := ".png"
	if sig.Format == "jpeg" {
		ext = ".jpg"
	}

	tmp, err := os.CreateTemp("", "signature-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp image file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(sig.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", nil, fmt.Errorf("failed to write temp image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", nil, fmt.Errorf("failed to close temp image file: %w", err)
	}

	return tmpName, func() { os.Remove(tmpName) }, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
