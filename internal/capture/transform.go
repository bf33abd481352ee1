package capture

import (
	"github.com/framesense/agent/internal/screen"
)

// MinDimension is the smallest usable capture edge in pixels. Regions that
// clamp below this on a monitor are rejected for that monitor and the next
// overlapping monitor is tried instead.
const MinDimension = 10

// Placement is the result of resolving a virtual-desktop rectangle onto one
// physical monitor: the chosen monitor plus the clamped monitor-local region.
type Placement struct {
	Monitor screen.Monitor
	Local   Rect
}

// Resolve maps rect from virtual-desktop coordinates onto the first monitor
// whose bounds overlap it, returning the clamped monitor-local region.
//
// A rectangle spanning two monitors resolves to whichever monitor enumerates
// first, not the one with the greater overlap area. The returned region is
// always fully contained in the chosen monitor.
func Resolve(rect Rect, area screen.VirtualDesktop, monitors []screen.Monitor) (Placement, error) {
	if !rect.Valid() {
		return Placement{}, ErrInvalidRect
	}

	// Overlay coordinates are relative to the virtual desktop origin, which
	// may itself be negative in absolute screen space.
	absX := rect.X + area.MinX
	absY := rect.Y + area.MinY

	sawOverlap := false
	for _, m := range monitors {
		overlaps := absX < m.Right() && absX+rect.Width > m.X &&
			absY < m.Bottom() && absY+rect.Height > m.Y
		if !overlaps {
			continue
		}
		sawOverlap = true

		local := clampToMonitor(Rect{
			X:      absX - m.X,
			Y:      absY - m.Y,
			Width:  rect.Width,
			Height: rect.Height,
		}, m.Width, m.Height)

		if local.Width < MinDimension || local.Height < MinDimension {
			continue
		}
		return Placement{Monitor: m, Local: local}, nil
	}

	if sawOverlap {
		return Placement{}, ErrRegionTooSmall
	}
	return Placement{}, ErrNoMatchingMonitor
}

// ResolveSingle clamps rect directly against the given monitor's size with no
// coordinate translation. This is the fallback path used when topology
// resolution failed and only the first enumerated monitor is known.
func ResolveSingle(rect Rect, m screen.Monitor) (Placement, error) {
	if !rect.Valid() {
		return Placement{}, ErrInvalidRect
	}

	local := clampToMonitor(rect, m.Width, m.Height)
	if local.Width < MinDimension || local.Height < MinDimension {
		return Placement{}, ErrRegionTooSmall
	}
	return Placement{Monitor: m, Local: local}, nil
}

// clampToMonitor pulls the origin back so the requested size fits where
// possible, then shrinks the size to whatever room remains. The result never
// extends past (width, height).
func clampToMonitor(r Rect, width, height int) Rect {
	if r.X > width-r.Width {
		r.X = width - r.Width
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.Y > height-r.Height {
		r.Y = height - r.Height
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.Width > width-r.X {
		r.Width = width - r.X
	}
	if r.Height > height-r.Y {
		r.Height = height - r.Y
	}
	return r
}
