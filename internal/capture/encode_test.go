package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodePNG_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	img := testImage(32, 24)

	if err := EncodePNG(img, &buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("payload is not decodable PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 32 || decoded.Bounds().Dy() != 24 {
		t.Fatalf("decoded size = %v, want 32x24", decoded.Bounds())
	}
}

func TestEncodePNG_ReusesBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(testImage(64, 64), &buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	first := buf.Len()

	// Second encode of a smaller image must reset, not append.
	if err := EncodePNG(testImage(16, 16), &buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if buf.Len() >= first {
		t.Fatalf("buffer not reset between encodes: %d then %d bytes", first, buf.Len())
	}
}

func TestDataURI_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(testImage(16, 16), &buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	uri := DataURI(buf.Bytes())
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("missing data URI prefix: %.40s", uri)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if !bytes.Equal(raw, buf.Bytes()) {
		t.Fatal("decoded payload differs from encoded PNG bytes")
	}
}

func TestDownscale(t *testing.T) {
	img := testImage(400, 200)

	scaled := Downscale(img, 100)
	if scaled.Bounds().Dx() != 100 || scaled.Bounds().Dy() != 50 {
		t.Fatalf("scaled = %v, want 100x50", scaled.Bounds())
	}

	// At or below the cap the image is returned unchanged.
	if got := Downscale(img, 400); got != img {
		t.Fatal("image at the cap should be returned as-is")
	}
	if got := Downscale(img, 0); got != img {
		t.Fatal("non-positive cap should disable scaling")
	}
}
