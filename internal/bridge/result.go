package bridge

import (
	"errors"

	"github.com/framesense/agent/internal/capture"
)

// Command types accepted over the bridge socket.
const (
	// Capture
	CmdCaptureRegion     = "capture_region"
	CmdCaptureFullscreen = "capture_fullscreen"
	CmdProcessSelection  = "process_selection"
	CmdDebugCoordinates  = "debug_coordinates"

	// Cache management
	CmdClearCache   = "clear_cache"
	CmdCacheStats   = "cache_stats"
	CmdSweepCache   = "sweep_cache"
	CmdResizeBuffer = "resize_buffer"

	// Overlay
	CmdShowOverlay = "show_overlay"
	CmdHideOverlay = "hide_overlay"

	// Account
	CmdLogin              = "login"
	CmdLogout             = "logout"
	CmdVerifyToken        = "verify_token"
	CmdGetCurrentUser     = "get_current_user"
	CmdGetAvailableModels = "get_available_models"
	CmdCanUseModel        = "can_use_model"

	// Text extraction
	CmdExtractTextOCR = "extract_text_ocr"

	// System
	CmdCheckPermissions = "check_permissions"
	CmdSystemInfo       = "system_info"
	CmdScreenInfo       = "screen_info"
)

// Result is the outcome of one command execution.
type Result struct {
	Status     string `json:"status"` // completed, failed
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// NewSuccessResult wraps data in a completed result.
func NewSuccessResult(data any) Result {
	return Result{Status: "completed", Data: data}
}

// NewErrorResult wraps err in a failed result.
func NewErrorResult(err error) Result {
	return Result{Status: "failed", Error: err.Error()}
}

// Payload accessors. UI payloads arrive as map[string]any from JSON, so
// numbers are float64.

func GetPayloadString(payload map[string]any, key, defaultVal string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

func GetPayloadInt(payload map[string]any, key string, defaultVal int) int {
	if v, ok := payload[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return defaultVal
}

func GetPayloadBool(payload map[string]any, key string, defaultVal bool) bool {
	if v, ok := payload[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

var errMissingRect = errors.New("payload is missing a capture rect")

// payloadRect reads a capture rectangle from the payload, either nested under
// "rect" or as top-level x/y/width/height keys.
func payloadRect(payload map[string]any) (capture.Rect, error) {
	src := payload
	if nested, ok := payload["rect"].(map[string]any); ok {
		src = nested
	}

	if _, ok := src["width"]; !ok {
		return capture.Rect{}, errMissingRect
	}

	rect := capture.Rect{
		X:      GetPayloadInt(src, "x", 0),
		Y:      GetPayloadInt(src, "y", 0),
		Width:  GetPayloadInt(src, "width", 0),
		Height: GetPayloadInt(src, "height", 0),
	}
	if !rect.Valid() {
		return capture.Rect{}, capture.ErrInvalidRect
	}
	return rect, nil
}
