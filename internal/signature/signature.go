// Package signature produces the raster image stamped onto signed
// documents. Three sources are supported: an uploaded PNG or JPEG, a typed
// name rendered in an italic face, and drawn pen strokes rasterized to PNG.
package signature

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG format
	_ "image/png"  // register PNG format
)

// MaxUploadSize caps uploaded signature images.
const MaxUploadSize = 5 * 1024 * 1024

// Signature is a ready-to-stamp raster image.
type Signature struct {
	Data   []byte `json:"-"`
	Format string `json:"format"` // "png" or "jpeg"
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FromUpload validates uploaded image bytes and wraps them as a signature.
// Only PNG and JPEG are accepted; anything else fails the document at
// signing time, so it is rejected here instead.
func FromUpload(data []byte) (*Signature, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("image too large: %d bytes (max: %d bytes)", len(data), MaxUploadSize)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unreadable image data: %w", err)
	}

	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("unsupported image format %q (must be png or jpeg)", format)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}

	return &Signature{
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
