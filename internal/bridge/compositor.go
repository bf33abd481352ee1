package bridge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/framesense/agent/internal/overlay"
)

// Overlay surfaces are real windows owned by the UI shell; the agent drives
// them remotely over the bridge. Each surface gets an id so control events
// stay unambiguous if the UI ever renders more than one.

type wsCompositor struct {
	b *Bridge
}

// Compositor returns an overlay.Compositor that renders surfaces through
// this bridge's event channel.
func (b *Bridge) Compositor() overlay.Compositor {
	return &wsCompositor{b: b}
}

func (c *wsCompositor) CreateSurface(bounds overlay.Bounds) (overlay.Surface, error) {
	id := uuid.NewString()
	err := c.b.Push("overlay_create", map[string]any{
		"surfaceId": id,
		"bounds":    bounds,
	})
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}
	return &wsSurface{b: c.b, id: id}, nil
}

type wsSurface struct {
	b  *Bridge
	id string
}

func (s *wsSurface) Show() error {
	return s.b.Push("overlay_show", map[string]any{"surfaceId": s.id})
}

func (s *wsSurface) Hide() error {
	return s.b.Push("overlay_hide", map[string]any{"surfaceId": s.id})
}

func (s *wsSurface) Focus() error {
	return s.b.Push("overlay_focus", map[string]any{"surfaceId": s.id})
}

func (s *wsSurface) Close() error {
	return s.b.Push("overlay_close", map[string]any{"surfaceId": s.id})
}
