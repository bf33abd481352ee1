package capture

import "fmt"

// Rect is a capture rectangle. At the system boundary it is expressed in
// virtual-desktop coordinates (origin = top-left of the union of all
// monitors); after resolution it is monitor-local. Rect is comparable and is
// used verbatim as the cache key: two rects differing by one pixel are
// distinct keys.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the rectangle has positive dimensions.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", r.Width, r.Height, r.X, r.Y)
}
