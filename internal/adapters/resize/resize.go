package resize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	OutputMimeType = "image/jpeg"
	jpegQuality    = 85
)

var ErrDimensions = errors.New("resize: width and height must be positive")

// Resize decodes data, scales it to cover width x height keeping the aspect
// ratio, crops the overflow around the centre and re-encodes it as JPEG.
func Resize(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrDimensions
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("resize: decode: %w", err)
	}
	dst := imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	// JPEG has no alpha; transparent areas become white instead of black.
	dst = imaging.Overlay(imaging.New(width, height, color.White), dst, image.Pt(0, 0), 1)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("resize: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Resizer adapts Resize to domain.Resizer.
type Resizer struct{}

func (Resizer) Resize(data []byte, width, height int) ([]byte, error) {
	return Resize(data, width, height)
}

func (Resizer) MimeType() string { return OutputMimeType }
