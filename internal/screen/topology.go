package screen

import (
	"errors"
	"fmt"
)

// ErrNoDisplays is returned when the OS reports zero connected monitors.
var ErrNoDisplays = errors.New("no displays available")

// Enumerator lists the monitors the OS currently reports.
// Implementations must return monitors in the OS enumeration order; callers
// treat the first entry as the primary display.
type Enumerator interface {
	Monitors() ([]Monitor, error)
}

// Resolver answers topology queries against an Enumerator. It is a pure
// query layer: every call re-enumerates, nothing is cached here.
type Resolver struct {
	enum Enumerator
}

// NewResolver creates a Resolver backed by the given enumerator.
func NewResolver(enum Enumerator) *Resolver {
	return &Resolver{enum: enum}
}

// Monitors returns all connected monitors, failing with ErrNoDisplays when
// the OS reports none.
func (r *Resolver) Monitors() ([]Monitor, error) {
	monitors, err := r.enum.Monitors()
	if err != nil {
		return nil, fmt.Errorf("enumerate monitors: %w", err)
	}
	if len(monitors) == 0 {
		return nil, ErrNoDisplays
	}
	return monitors, nil
}

// TotalArea computes the virtual desktop: the bounding box of all monitors.
// Overlapping and disjoint layouts are both fine since only the enclosing
// rectangle matters for overlay placement.
func (r *Resolver) TotalArea() (VirtualDesktop, []Monitor, error) {
	monitors, err := r.Monitors()
	if err != nil {
		return VirtualDesktop{}, nil, err
	}
	return TotalArea(monitors), monitors, nil
}

// TotalArea computes the bounding box of the given monitors. The slice must
// be non-empty; callers go through Resolver.TotalArea for the empty check.
func TotalArea(monitors []Monitor) VirtualDesktop {
	area := VirtualDesktop{
		MinX: monitors[0].X,
		MinY: monitors[0].Y,
		MaxX: monitors[0].Right(),
		MaxY: monitors[0].Bottom(),
	}
	for _, m := range monitors[1:] {
		if m.X < area.MinX {
			area.MinX = m.X
		}
		if m.Y < area.MinY {
			area.MinY = m.Y
		}
		if m.Right() > area.MaxX {
			area.MaxX = m.Right()
		}
		if m.Bottom() > area.MaxY {
			area.MaxY = m.Bottom()
		}
	}
	area.Width = area.MaxX - area.MinX
	area.Height = area.MaxY - area.MinY
	return area
}
