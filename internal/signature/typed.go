package signature

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	typedFontSize = 64.0
	typedPadding  = 24
	maxTypedRunes = 60
)

// FromTypedName renders a name in an italic face on a transparent canvas
// and returns it as a PNG signature. The canvas is sized to the rendered
// text plus padding.
func FromTypedName(name string) (*Signature, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if len([]rune(name)) > maxTypedRunes {
		return nil, fmt.Errorf("name too long: %d characters (max: %d)", len([]rune(name)), maxTypedRunes)
	}

	parsed, err := opentype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    typedFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	textWidth := font.MeasureString(face, name)

	width := textWidth.Ceil() + 2*typedPadding
	height := (metrics.Ascent + metrics.Descent).Ceil() + 2*typedPadding

	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{R: 20, G: 20, B: 60, A: 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(typedPadding),
			Y: fixed.I(typedPadding) + metrics.Ascent,
		},
	}
	drawer.DrawString(name)

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
