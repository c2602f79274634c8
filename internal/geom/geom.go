// Package geom converts signature placements between UI viewport space and
// PDF page space.
//
// UI space has its origin at the top-left of a rendered viewport and is
// measured in pixels at that viewport's render scale. PDF space has its
// origin at the bottom-left of the page and is measured in points. A
// placement always carries the viewport dimensions it was defined against;
// interpreting its rectangle against any other viewport silently produces a
// wrong position on the page.
package geom

// Rect is an axis-aligned rectangle. The meaning of X and Y depends on the
// coordinate space the rectangle lives in (see package doc).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size holds width and height of a viewport or a PDF page.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Placement is a confirmed signature position on one page of a document.
// UIRect is interpreted relative to ViewportSize, never any other viewport.
type Placement struct {
	PageIndex    int  `json:"page_index"`
	UIRect       Rect `json:"ui_rect"`
	ViewportSize Size `json:"viewport_size"`
}

// Default signature box dimensions and the vertical gap between an anchor
// and the signature placed below it, in UI units.
const (
	DefaultSignatureWidth  = 200.0
	DefaultSignatureHeight = 80.0
	AnchorOffsetY          = 15.0
)

// ToPDFRect converts a UI-space rectangle into PDF page space.
//
// The vertical axis is inverted: UI y measures distance from the top of the
// viewport, PDF y measures distance from the bottom of the page, so the
// bottom edge of the placed rectangle is the page height minus the
// rectangle's top offset minus its height.
//
// No clamping is applied. A uiRect extending past the viewport produces a
// rect partially or fully outside the page; keeping rectangles in bounds is
// the caller's job. Pure function, no failure mode beyond propagating
// non-finite inputs.
func ToPDFRect(uiRect Rect, viewport, page Size) Rect {
	scaleX := page.Width / viewport.Width
	scaleY := page.Height / viewport.Height

	w := uiRect.Width * scaleX
	h := uiRect.Height * scaleY

	return Rect{
		X:      uiRect.X * scaleX,
		Y:      page.Height - uiRect.Y*scaleY - h,
		Width:  w,
		Height: h,
	}
}

// ToUIRect is the exact inverse of ToPDFRect for the same viewport and page
// sizes.
func ToUIRect(pdfRect Rect, viewport, page Size) Rect {
	scaleX := viewport.Width / page.Width
	scaleY := viewport.Height / page.Height

	return Rect{
		X:      pdfRect.X * scaleX,
		Y:      (page.Height - pdfRect.Y - pdfRect.Height) * scaleY,
		Width:  pdfRect.Width * scaleX,
		Height: pdfRect.Height * scaleY,
	}
}

// PlacementForAnchor derives a signature placement from an anchor position.
// The box sits AnchorOffsetY below the anchor point and is floored at the
// viewport origin; the anchor's own position was already clamped by the
// detector.
func PlacementForAnchor(pageIndex int, x, y float64, viewport Size) Placement {
	px := x
	py := y + AnchorOffsetY
	if px < 0 {
		px = 0
	}
	if py < 0 {
		py = 0
	}

	return Placement{
		PageIndex: pageIndex,
		UIRect: Rect{
			X:      px,
			Y:      py,
			Width:  DefaultSignatureWidth,
			Height: DefaultSignatureHeight,
		},
		ViewportSize: viewport,
	}
}

// DefaultReviewPlacement is the fallback used when no anchor was detected:
// last page, fixed box, nominal 800x600 viewport. It always requires manual
// confirmation before signing.
func DefaultReviewPlacement(pageCount int) Placement {
	pageIndex := pageCount - 1
	if pageIndex < 0 {
		pageIndex = 0
	}

	return Placement{
		PageIndex:    pageIndex,
		UIRect:       Rect{X: 100, Y: 100, Width: 200, Height: 80},
		ViewportSize: Size{Width: 800, Height: 600},
	}
}
