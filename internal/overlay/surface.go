package overlay

// Bounds positions the overlay surface in virtual-desktop absolute
// coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Surface is one full-desktop transparent selection window. The actual
// window is owned by the windowing layer; implementations only forward the
// show/hide/focus/close primitives and report their errors.
type Surface interface {
	Show() error
	Hide() error
	Focus() error
	Close() error
}

// Compositor creates overlay surfaces. The surface it returns must be
// transparent, borderless, always-on-top, and sized to the given bounds.
type Compositor interface {
	CreateSurface(b Bounds) (Surface, error)
}
