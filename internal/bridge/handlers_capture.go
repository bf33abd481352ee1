package bridge

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/framesense/agent/internal/capture"
)

// Fullscreen grabs are preview material for the UI, not capture payloads, so
// they are scaled down before encoding.
const defaultFullscreenMaxWidth = 1920

func init() {
	registerHandler(CmdCaptureRegion, handleCaptureRegion)
	registerHandler(CmdCaptureFullscreen, handleCaptureFullscreen)
	registerHandler(CmdProcessSelection, handleProcessSelection)
	registerHandler(CmdDebugCoordinates, handleDebugCoordinates)

	registerHandler(CmdClearCache, handleClearCache)
	registerHandler(CmdCacheStats, handleCacheStats)
	registerHandler(CmdSweepCache, handleSweepCache)
	registerHandler(CmdResizeBuffer, handleResizeBuffer)
}

func handleCaptureRegion(b *Bridge, cmd Command) Result {
	rect, err := payloadRect(cmd.Payload)
	if err != nil {
		return NewErrorResult(err)
	}

	res, err := b.deps.Cache.GetOrCapture(rect)
	if err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(res)
}

// handleProcessSelection completes an overlay selection: the overlay is
// dismissed first so it cannot bleed into the captured pixels, then the
// selected region is captured through the cache.
func handleProcessSelection(b *Bridge, cmd Command) Result {
	rect, err := payloadRect(cmd.Payload)
	if err != nil {
		return NewErrorResult(err)
	}

	if pool := b.overlayPool(); pool != nil {
		if err := pool.Hide(); err != nil {
			log.Warn("hiding overlay before selection capture failed", "error", err)
		}
	}

	res, err := b.deps.Cache.GetOrCapture(rect)
	if err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(res)
}

// handleCaptureFullscreen bypasses the cache: full-monitor grabs are too
// large to keep and are never re-requested at the same instant.
func handleCaptureFullscreen(b *Bridge, cmd Command) Result {
	monitors, err := b.deps.Topo.Monitors()
	if err != nil {
		return NewErrorResult(err)
	}

	monitorID := GetPayloadInt(cmd.Payload, "monitor", 0)
	if monitorID < 0 || monitorID >= len(monitors) {
		return NewErrorResult(fmt.Errorf("monitor %d out of range (%d available)", monitorID, len(monitors)))
	}
	m := monitors[monitorID]

	img, err := b.deps.Backend.ReadPixels(m, capture.Rect{Width: m.Width, Height: m.Height})
	if err != nil {
		return NewErrorResult(fmt.Errorf("capture backend: %w", err))
	}

	maxWidth := GetPayloadInt(cmd.Payload, "maxWidth", defaultFullscreenMaxWidth)
	img = capture.Downscale(img, maxWidth)

	var buf bytes.Buffer
	if err := capture.EncodePNG(img, &buf); err != nil {
		return NewErrorResult(err)
	}

	return NewSuccessResult(map[string]any{
		"imageData": capture.DataURI(buf.Bytes()),
		"monitor":   m.ID,
		"width":     img.Bounds().Dx(),
		"height":    img.Bounds().Dy(),
	})
}

// handleDebugCoordinates reports where a rect would land without touching
// the screen, for diagnosing multi-monitor selection offsets.
func handleDebugCoordinates(b *Bridge, cmd Command) Result {
	rect, err := payloadRect(cmd.Payload)
	if err != nil {
		return NewErrorResult(err)
	}

	area, monitors, err := b.deps.Topo.TotalArea()
	if err != nil {
		return NewErrorResult(err)
	}

	placement, err := capture.Resolve(rect, area, monitors)
	if err != nil {
		return NewErrorResult(err)
	}

	return NewSuccessResult(map[string]any{
		"input":          rect,
		"virtualDesktop": area,
		"monitor":        placement.Monitor,
		"local":          placement.Local,
	})
}

func handleClearCache(b *Bridge, _ Command) Result {
	b.deps.Cache.Clear()
	return NewSuccessResult(map[string]any{"cleared": true})
}

func handleCacheStats(b *Bridge, _ Command) Result {
	return NewSuccessResult(b.deps.Cache.Stats())
}

func handleSweepCache(b *Bridge, _ Command) Result {
	removed := b.deps.Cache.SweepExpired()
	return NewSuccessResult(map[string]any{"removed": removed})
}

func handleResizeBuffer(b *Bridge, cmd Command) Result {
	capacity := GetPayloadInt(cmd.Payload, "capacityBytes", 0)
	if capacity <= 0 {
		return NewErrorResult(errors.New("capacityBytes must be positive"))
	}
	b.deps.Cache.ResizeScratch(capacity)
	return NewSuccessResult(map[string]any{"capacityBytes": capacity})
}
