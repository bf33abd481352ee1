package screen

// Monitor describes a connected display in virtual-desktop absolute
// coordinates. Instances are produced fresh on each enumeration and never
// mutated afterwards.
type Monitor struct {
	ID          int     `json:"id"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"scaleFactor"`
	IsPrimary   bool    `json:"isPrimary"`
}

// Right returns the exclusive right edge of the monitor in absolute coordinates.
func (m Monitor) Right() int { return m.X + m.Width }

// Bottom returns the exclusive bottom edge of the monitor in absolute coordinates.
func (m Monitor) Bottom() int { return m.Y + m.Height }

// VirtualDesktop is the axis-aligned bounding box enclosing all monitors.
// Invariant: Width == MaxX-MinX and Height == MaxY-MinY. The origin (MinX,
// MinY) may be negative when a secondary monitor sits left of or above the
// primary.
type VirtualDesktop struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	MinX   int `json:"minX"`
	MinY   int `json:"minY"`
	MaxX   int `json:"maxX"`
	MaxY   int `json:"maxY"`
}
