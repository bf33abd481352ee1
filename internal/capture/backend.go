package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/framesense/agent/internal/screen"
)

// Backend performs the OS-level pixel read for a monitor-local region.
// Reads are blocking and not cancellable once started.
type Backend interface {
	ReadPixels(m screen.Monitor, local Rect) (*image.RGBA, error)
}

// osBackend reads pixels through the kbinani/screenshot backend, which takes
// virtual-desktop absolute coordinates.
type osBackend struct{}

// NewBackend returns the platform screen-read backend.
func NewBackend() Backend {
	return osBackend{}
}

func (osBackend) ReadPixels(m screen.Monitor, local Rect) (*image.RGBA, error) {
	img, err := screenshot.Capture(m.X+local.X, m.Y+local.Y, local.Width, local.Height)
	if err != nil {
		return nil, fmt.Errorf("screen read on monitor %d: %w", m.ID, err)
	}
	return img, nil
}
