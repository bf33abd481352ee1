package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Dangerous values that would break capture or caching are clamped to safe
// defaults. Other validation errors are logged as warnings but do not prevent
// startup.
func (c *Config) Validate() []error {
	var errs []error

	if c.APIBaseURL != "" {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("api_base_url %q is not a valid URL: %w", c.APIBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("api_base_url scheme must be http or https, got %q", u.Scheme))
		}
	}

	if c.BridgeListenAddr != "" && !strings.HasPrefix(c.BridgeListenAddr, "127.0.0.1:") &&
		!strings.HasPrefix(c.BridgeListenAddr, "localhost:") && !strings.HasPrefix(c.BridgeListenAddr, "[::1]:") {
		errs = append(errs, fmt.Errorf("bridge_listen_addr %q is not loopback, clamping to 127.0.0.1:8976", c.BridgeListenAddr))
		c.BridgeListenAddr = "127.0.0.1:8976"
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	// A zero or tiny budget would evict every entry on insert.
	if c.CacheMaxBytes < 1024*1024 {
		errs = append(errs, fmt.Errorf("cache_max_bytes %d is below minimum 1MB, clamping", c.CacheMaxBytes))
		c.CacheMaxBytes = 1024 * 1024
	} else if c.CacheMaxBytes > 1024*1024*1024 {
		errs = append(errs, fmt.Errorf("cache_max_bytes %d exceeds maximum 1GB, clamping", c.CacheMaxBytes))
		c.CacheMaxBytes = 1024 * 1024 * 1024
	}

	if c.CacheTTLSeconds < 1 {
		errs = append(errs, fmt.Errorf("cache_ttl_seconds %d is below minimum 1, clamping", c.CacheTTLSeconds))
		c.CacheTTLSeconds = 1
	} else if c.CacheTTLSeconds > 3600 {
		errs = append(errs, fmt.Errorf("cache_ttl_seconds %d exceeds maximum 3600, clamping", c.CacheTTLSeconds))
		c.CacheTTLSeconds = 3600
	}

	if c.ScreenInfoTTLSeconds < 1 {
		errs = append(errs, fmt.Errorf("screen_info_ttl_seconds %d is below minimum 1, clamping", c.ScreenInfoTTLSeconds))
		c.ScreenInfoTTLSeconds = 1
	} else if c.ScreenInfoTTLSeconds > 3600 {
		errs = append(errs, fmt.Errorf("screen_info_ttl_seconds %d exceeds maximum 3600, clamping", c.ScreenInfoTTLSeconds))
		c.ScreenInfoTTLSeconds = 3600
	}

	if c.ScratchBufferBytes < 4096 {
		errs = append(errs, fmt.Errorf("scratch_buffer_bytes %d is below minimum 4096, clamping", c.ScratchBufferBytes))
		c.ScratchBufferBytes = 4096
	}

	if c.OverlayIdleTimeoutSeconds < 10 {
		errs = append(errs, fmt.Errorf("overlay_idle_timeout_seconds %d is below minimum 10, clamping", c.OverlayIdleTimeoutSeconds))
		c.OverlayIdleTimeoutSeconds = 10
	} else if c.OverlayIdleTimeoutSeconds > 86400 {
		errs = append(errs, fmt.Errorf("overlay_idle_timeout_seconds %d exceeds maximum 86400, clamping", c.OverlayIdleTimeoutSeconds))
		c.OverlayIdleTimeoutSeconds = 86400
	}

	if c.MaxConcurrentCommands < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_commands %d is below minimum 1, clamping", c.MaxConcurrentCommands))
		c.MaxConcurrentCommands = 1
	} else if c.MaxConcurrentCommands > 64 {
		errs = append(errs, fmt.Errorf("max_concurrent_commands %d exceeds maximum 64, clamping", c.MaxConcurrentCommands))
		c.MaxConcurrentCommands = 64
	}

	if c.CommandQueueSize < 1 {
		errs = append(errs, fmt.Errorf("command_queue_size %d is below minimum 1, clamping", c.CommandQueueSize))
		c.CommandQueueSize = 1
	} else if c.CommandQueueSize > 10000 {
		errs = append(errs, fmt.Errorf("command_queue_size %d exceeds maximum 10000, clamping", c.CommandQueueSize))
		c.CommandQueueSize = 10000
	}

	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}
