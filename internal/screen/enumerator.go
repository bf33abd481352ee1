package screen

import (
	"github.com/kbinani/screenshot"
)

// osEnumerator enumerates displays through the kbinani/screenshot backend.
// The backend does not expose per-monitor DPI, so ScaleFactor is reported as
// 1.0; coordinates are already in virtual-desktop pixels.
type osEnumerator struct{}

// NewOSEnumerator returns the platform display enumerator.
func NewOSEnumerator() Enumerator {
	return osEnumerator{}
}

func (osEnumerator) Monitors() ([]Monitor, error) {
	n := screenshot.NumActiveDisplays()
	monitors := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		monitors = append(monitors, Monitor{
			ID:          i,
			X:           bounds.Min.X,
			Y:           bounds.Min.Y,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			ScaleFactor: 1.0,
			IsPrimary:   i == 0,
		})
	}
	return monitors, nil
}
