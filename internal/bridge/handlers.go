package bridge

import (
	"fmt"
	"time"

	"github.com/framesense/agent/internal/logging"
)

// Handler processes a command and returns a result.
type Handler func(b *Bridge, cmd Command) Result

// handlerRegistry maps command types to their handlers. Handlers register
// via init() in handlers_*.go files; the map is read-only after package init.
var handlerRegistry = map[string]Handler{}

func registerHandler(cmdType string, h Handler) {
	if _, dup := handlerRegistry[cmdType]; dup {
		panic("duplicate bridge handler: " + cmdType)
	}
	handlerRegistry[cmdType] = h
}

// dispatch looks up and runs the handler for cmd, filling in the duration
// unless the handler measured its own.
func (b *Bridge) dispatch(cmd Command) Result {
	logger := logging.WithCommand(log, cmd.ID, cmd.Type)

	handler, ok := handlerRegistry[cmd.Type]
	if !ok {
		logger.Warn("no handler registered")
		return NewErrorResult(fmt.Errorf("unknown command type %q", cmd.Type))
	}

	start := time.Now()
	result := handler(b, cmd)
	if result.DurationMs <= 0 {
		result.DurationMs = time.Since(start).Milliseconds()
	}

	if result.Status == "failed" {
		logger.Warn("command failed", "error", result.Error, "durationMs", result.DurationMs)
	} else {
		logger.Debug("command completed", "durationMs", result.DurationMs)
	}
	return result
}
