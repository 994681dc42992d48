// Package imaging turns raw page bytes into images and draws them with
// terminal half blocks.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels guards against pages large enough to exhaust memory.
const DefaultMaxPixels = 40_000_000

var (
	ErrEmpty    = errors.New("imaging: empty image data")
	ErrTooLarge = errors.New("imaging: image too large")
)

// Decoder decodes jpeg, png, gif and webp pages.
type Decoder struct {
	MaxPixels int
}

func NewDecoder() *Decoder {
	return &Decoder{MaxPixels: DefaultMaxPixels}
}

// Decode returns the image and its size in pixels.
func (d *Decoder) Decode(data []byte) (image.Image, image.Point, error) {
	if len(data) == 0 {
		return nil, image.Point{}, ErrEmpty
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("failed to read image header: %w", err)
	}
	if d.MaxPixels > 0 && cfg.Width*cfg.Height > d.MaxPixels {
		return nil, image.Point{}, fmt.Errorf("%w: %dx%d %s", ErrTooLarge, cfg.Width, cfg.Height, format)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	b := img.Bounds()
	return img, image.Pt(b.Dx(), b.Dy()), nil
}
