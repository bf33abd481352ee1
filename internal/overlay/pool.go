// Package overlay manages the lifecycle of the full-desktop selection
// surface. Constructing a transparent always-on-top window spanning every
// monitor is expensive relative to a show/hide toggle, so the pool creates
// the surface once and reuses it across capture invocations.
package overlay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/framesense/agent/internal/logging"
	"github.com/framesense/agent/internal/screen"
)

var log = logging.L("overlay")

// DefaultIdleTimeout is how long a hidden surface survives before the idle
// sweep reclaims it. The next Show recreates it.
const DefaultIdleTimeout = 5 * time.Minute

// Fallback dimensions when not even single-monitor geometry is available.
const (
	fallbackWidth  = 1920
	fallbackHeight = 1080
)

// Pool owns at most one overlay surface and sequences its state machine:
// Uncreated → Idle ⇄ Active, with an idle sweep back to Uncreated. All
// fields are guarded by a single exclusive lock.
type Pool struct {
	mu          sync.Mutex
	comp        Compositor
	topo        *screen.Resolver
	surface     Surface
	active      bool
	lastUsed    time.Time
	idleTimeout time.Duration

	now func() time.Time
}

// NewPool creates a pool that sizes surfaces from topo and creates them
// through comp. A non-positive idleTimeout selects DefaultIdleTimeout.
func NewPool(comp Compositor, topo *screen.Resolver, idleTimeout time.Duration) *Pool {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Pool{
		comp:        comp,
		topo:        topo,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Show makes the selection surface visible and focused, creating it on first
// use and reusing it afterwards.
func (p *Pool) Show() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface == nil {
		bounds := p.desktopBounds()
		surface, err := p.comp.CreateSurface(bounds)
		if err != nil {
			return fmt.Errorf("create overlay surface: %w", err)
		}
		p.surface = surface
		log.Info("overlay surface created",
			"width", bounds.Width, "height", bounds.Height, "x", bounds.X, "y", bounds.Y)
	}

	if err := p.surface.Show(); err != nil {
		return fmt.Errorf("show overlay: %w", err)
	}
	// Focus failure is reported by the windowing layer but does not make the
	// overlay unusable; selection events may still arrive.
	if err := p.surface.Focus(); err != nil {
		log.Warn("could not focus overlay surface", "error", err)
	}

	p.active = true
	p.lastUsed = p.now()
	return nil
}

// Hide hides the surface without destroying it. Hiding an uncreated or
// already hidden surface is a no-op.
func (p *Pool) Hide() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface == nil {
		return nil
	}
	if err := p.surface.Hide(); err != nil {
		return fmt.Errorf("hide overlay: %w", err)
	}
	p.active = false
	p.lastUsed = p.now()
	return nil
}

// Active reports whether the surface is currently shown.
func (p *Pool) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// SweepIdle destroys a hidden surface that has been idle longer than the
// idle timeout, reclaiming the window resources. Returns true if a surface
// was reclaimed. An active surface is never swept.
func (p *Pool) SweepIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface == nil || p.active {
		return false
	}
	if p.now().Sub(p.lastUsed) <= p.idleTimeout {
		return false
	}

	if err := p.surface.Close(); err != nil {
		log.Warn("closing idle overlay surface failed", "error", err)
	}
	p.surface = nil
	log.Info("idle overlay surface reclaimed")
	return true
}

// Run sweeps idle surfaces on the given interval until ctx is done.
func (p *Pool) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.SweepIdle()
		}
	}
}

// desktopBounds returns the virtual desktop rectangle, degrading to the
// first monitor's geometry and finally to fixed 1920x1080 bounds so a
// headless or misconfigured display environment still gets an overlay
// attempt rather than an abort.
func (p *Pool) desktopBounds() Bounds {
	area, _, err := p.topo.TotalArea()
	if err == nil {
		return Bounds{X: area.MinX, Y: area.MinY, Width: area.Width, Height: area.Height}
	}
	log.Warn("total screen area unavailable, falling back", "error", err)

	monitors, err := p.topo.Monitors()
	if err == nil {
		m := monitors[0]
		return Bounds{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
	}

	return Bounds{Width: fallbackWidth, Height: fallbackHeight}
}
