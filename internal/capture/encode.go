package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// dataURIPrefix tags the fixed payload format: base64 PNG. The payload must
// round-trip through standard PNG decoders.
const dataURIPrefix = "data:image/png;base64,"

// EncodePNG encodes img as PNG into buf. The buffer is reset first so it can
// be reused across captures without reallocating.
func EncodePNG(img image.Image, buf *bytes.Buffer) error {
	buf.Reset()
	if err := png.Encode(buf, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}

// DataURI wraps raw PNG bytes in the self-describing payload format.
func DataURI(pngData []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(pngData)
}

// Downscale resizes img so its width does not exceed maxWidth, preserving
// aspect ratio. Images at or below the cap are returned unchanged.
func Downscale(img *image.RGBA, maxWidth int) *image.RGBA {
	bounds := img.Bounds()
	if maxWidth <= 0 || bounds.Dx() <= maxWidth {
		return img
	}

	factor := float64(maxWidth) / float64(bounds.Dx())
	h := int(float64(bounds.Dy()) * factor)
	if h < 1 {
		h = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
	return scaled
}
