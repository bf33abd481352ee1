// Package ocr validates capture payloads for text extraction. The engine
// binding is not wired yet, so extraction returns an empty result after the
// payload checks pass.
package ocr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/framesense/agent/internal/logging"
)

var log = logging.L("ocr")

// Images below this edge length carry no recognizable text.
const minDimension = 10

var ErrImageTooSmall = errors.New("image too small for text extraction")

// Result is the outcome of a text extraction pass.
type Result struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
	HasText    bool    `json:"has_text"`
}

// Service extracts text from capture payloads.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ExtractText decodes a data URI or raw base64 PNG payload, validates its
// dimensions, and runs extraction.
func (s *Service) ExtractText(payload string) (*Result, error) {
	raw := payload
	if strings.HasPrefix(payload, "data:image") {
		if _, rest, ok := strings.Cut(payload, ","); ok {
			raw = rest
		}
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse image: %w", err)
	}
	if cfg.Width < minDimension || cfg.Height < minDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooSmall, cfg.Width, cfg.Height)
	}

	log.Debug("extraction input validated", "width", cfg.Width, "height", cfg.Height)

	// TODO: wire the tesseract binding once the packaging story for its
	// native libraries is settled.
	return &Result{Text: "", Confidence: 0, HasText: false}, nil
}
