package ocr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"
)

func pngPayload(t *testing.T, w, h int, withPrefix bool) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	if withPrefix {
		return "data:image/png;base64," + encoded
	}
	return encoded
}

func TestExtractText_AcceptsDataURI(t *testing.T) {
	s := NewService()
	res, err := s.ExtractText(pngPayload(t, 200, 100, true))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.HasText {
		t.Fatal("placeholder result should report no text")
	}
}

func TestExtractText_AcceptsRawBase64(t *testing.T) {
	s := NewService()
	if _, err := s.ExtractText(pngPayload(t, 64, 64, false)); err != nil {
		t.Fatalf("extract: %v", err)
	}
}

func TestExtractText_RejectsTinyImage(t *testing.T) {
	s := NewService()
	_, err := s.ExtractText(pngPayload(t, 5, 5, true))
	if !errors.Is(err, ErrImageTooSmall) {
		t.Fatalf("err = %v, want ErrImageTooSmall", err)
	}
}

func TestExtractText_RejectsGarbage(t *testing.T) {
	s := NewService()
	if _, err := s.ExtractText("data:image/png;base64,!!!not-base64!!!"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := s.ExtractText(base64.StdEncoding.EncodeToString([]byte("not a png"))); err == nil {
		t.Fatal("expected image parse error")
	}
}
