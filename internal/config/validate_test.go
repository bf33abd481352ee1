package config

import (
	"strings"
	"testing"
)

func TestValidateInvalidURLScheme(t *testing.T) {
	cfg := Default()
	cfg.APIBaseURL = "ftp://example.com"
	errs := cfg.Validate()
	if len(errs) == 0 {
		t.Fatal("expected error for invalid URL scheme")
	}
}

func TestValidateNonLoopbackBridgeAddrClamped(t *testing.T) {
	cfg := Default()
	cfg.BridgeListenAddr = "0.0.0.0:8976"
	errs := cfg.Validate()
	if len(errs) == 0 {
		t.Fatal("expected error for non-loopback bridge addr")
	}
	if cfg.BridgeListenAddr != "127.0.0.1:8976" {
		t.Fatalf("BridgeListenAddr = %q, want clamped loopback", cfg.BridgeListenAddr)
	}
}

func TestValidateCacheBudgetClamping(t *testing.T) {
	cfg := Default()
	cfg.CacheMaxBytes = 10
	if errs := cfg.Validate(); len(errs) == 0 {
		t.Fatal("expected clamping error for tiny cache budget")
	}
	if cfg.CacheMaxBytes != 1024*1024 {
		t.Fatalf("CacheMaxBytes = %d, want 1MB floor", cfg.CacheMaxBytes)
	}

	cfg = Default()
	cfg.CacheMaxBytes = 2 * 1024 * 1024 * 1024
	cfg.Validate()
	if cfg.CacheMaxBytes != 1024*1024*1024 {
		t.Fatalf("CacheMaxBytes = %d, want 1GB ceiling", cfg.CacheMaxBytes)
	}
}

func TestValidateTTLClamping(t *testing.T) {
	cfg := Default()
	cfg.CacheTTLSeconds = 0
	cfg.ScreenInfoTTLSeconds = 99999
	cfg.Validate()
	if cfg.CacheTTLSeconds != 1 {
		t.Fatalf("CacheTTLSeconds = %d, want 1", cfg.CacheTTLSeconds)
	}
	if cfg.ScreenInfoTTLSeconds != 3600 {
		t.Fatalf("ScreenInfoTTLSeconds = %d, want 3600", cfg.ScreenInfoTTLSeconds)
	}
}

func TestValidateConcurrencyClamping(t *testing.T) {
	cfg := Default()
	cfg.MaxConcurrentCommands = 0
	cfg.CommandQueueSize = 0
	cfg.Validate()
	if cfg.MaxConcurrentCommands != 1 {
		t.Fatalf("MaxConcurrentCommands = %d, want 1", cfg.MaxConcurrentCommands)
	}
	if cfg.CommandQueueSize != 1 {
		t.Fatalf("CommandQueueSize = %d, want 1", cfg.CommandQueueSize)
	}
}

func TestValidateUnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	errs := cfg.Validate()
	found := false
	for _, err := range errs {
		if strings.Contains(err.Error(), "log_level") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected error for unknown log level")
	}
}

func TestValidateOverlayIdleTimeoutClamping(t *testing.T) {
	cfg := Default()
	cfg.OverlayIdleTimeoutSeconds = 1
	cfg.Validate()
	if cfg.OverlayIdleTimeoutSeconds != 10 {
		t.Fatalf("OverlayIdleTimeoutSeconds = %d, want 10", cfg.OverlayIdleTimeoutSeconds)
	}
}

func TestValidConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Fatalf("default config has errors: %v", errs)
	}
}
