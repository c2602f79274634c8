package signature

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/vector"
)

const (
	drawnStrokeWidth = 3.0
	drawnPadding     = 16.0
	maxStrokePoints  = 10000
)

// Point is one sample of a pen stroke, in the drawing surface's top-down
// pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromStrokes rasterizes drawn pen strokes into a PNG signature. Each
// stroke is a polyline of sampled points; the canvas is fitted to the
// strokes' bounding box plus padding.
func FromStrokes(strokes [][]Point) (*Signature, error) {
	total := 0
	for _, stroke := range strokes {
		total += len(stroke)
	}
	if total == 0 {
		return nil, fmt.Errorf("strokes cannot be empty")
	}
	if total > maxStrokePoints {
		return nil, fmt.Errorf("too many stroke points: %d (max: %d)", total, maxStrokePoints)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, stroke := range strokes {
		for _, p := range stroke {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}

	width := int(math.Ceil(maxX-minX)) + 2*int(drawnPadding)
	height := int(math.Ceil(maxY-minY)) + 2*int(drawnPadding)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	rast := vector.NewRasterizer(width, height)
	for _, stroke := range strokes {
		rasterizeStroke(rast, stroke, minX, minY)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rast.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{R: 20, G: 20, B: 60, A: 255}), image.Point{})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode signature image: %w", err)
	}

	return &Signature{
		Data:   buf.Bytes(),
		Format: "png",
		Width:  width,
		Height: height,
	}, nil
}

// rasterizeStroke emits one quad per polyline segment. Segments are
// normalized left-to-right so every quad winds the same way; opposing
// windings would cancel where strokes overlap.
func rasterizeStroke(rast *vector.Rasterizer, stroke []Point, offsetX, offsetY float64) {
	half := drawnStrokeWidth / 2

	for i := 1; i < len(stroke); i++ {
		p := stroke[i-1]
		q := stroke[i]

		if q.X < p.X || (q.X == p.X && q.Y < p.Y) {
			p, q = q, p
		}

		px := p.X - offsetX + drawnPadding
		py := p.Y - offsetY + drawnPadding
		qx := q.X - offsetX + drawnPadding
		qy := q.Y - offsetY + drawnPadding

		dx := qx - px
		dy := qy - py
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}

		// Unit normal scaled to half the stroke width.
		nx := -dy / length * half
		ny := dx / length * half

		rast.MoveTo(float32(px+nx), float32(py+ny))
		rast.LineTo(float32(qx+nx), float32(qy+ny))
		rast.LineTo(float32(qx-nx), float32(qy-ny))
		rast.LineTo(float32(px-nx), float32(py-ny))
		rast.ClosePath()
	}
}
