package bridge

import "errors"

func init() {
	registerHandler(CmdShowOverlay, handleShowOverlay)
	registerHandler(CmdHideOverlay, handleHideOverlay)
}

var errOverlayUnavailable = errors.New("overlay pool not configured")

func handleShowOverlay(b *Bridge, _ Command) Result {
	pool := b.overlayPool()
	if pool == nil {
		return NewErrorResult(errOverlayUnavailable)
	}
	if err := pool.Show(); err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(map[string]any{"active": true})
}

func handleHideOverlay(b *Bridge, _ Command) Result {
	pool := b.overlayPool()
	if pool == nil {
		return NewErrorResult(errOverlayUnavailable)
	}
	if err := pool.Hide(); err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(map[string]any{"active": false})
}
