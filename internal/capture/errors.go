package capture

import "errors"

// Sentinel errors for the capture pipeline. All are recoverable: callers
// surface them as structured failures rather than terminating the process.
var (
	// ErrNoMatchingMonitor means no monitor overlaps the requested rectangle.
	ErrNoMatchingMonitor = errors.New("no monitor contains the requested region")

	// ErrRegionTooSmall means every overlapping monitor clamped the region
	// below the minimum usable size.
	ErrRegionTooSmall = errors.New("capture region too small after clamping")

	// ErrInvalidRect means the request had non-positive width or height.
	ErrInvalidRect = errors.New("capture rectangle must have positive dimensions")
)
