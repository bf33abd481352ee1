package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL       string `mapstructure:"api_base_url"`
	BridgeListenAddr string `mapstructure:"bridge_listen_addr"`
	StateDir         string `mapstructure:"state_dir"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	CacheMaxBytes        int64 `mapstructure:"cache_max_bytes"`
	CacheTTLSeconds      int   `mapstructure:"cache_ttl_seconds"`
	ScreenInfoTTLSeconds int   `mapstructure:"screen_info_ttl_seconds"`
	ScratchBufferBytes   int   `mapstructure:"scratch_buffer_bytes"`

	OverlayIdleTimeoutSeconds int `mapstructure:"overlay_idle_timeout_seconds"`

	MaxConcurrentCommands int `mapstructure:"max_concurrent_commands"`
	CommandQueueSize      int `mapstructure:"command_queue_size"`
}

func Default() *Config {
	return &Config{
		APIBaseURL:                "https://api.framesense.app",
		BridgeListenAddr:          "127.0.0.1:8976",
		StateDir:                  stateDir(),
		LogLevel:                  "info",
		LogFormat:                 "text",
		CacheMaxBytes:             50 * 1024 * 1024,
		CacheTTLSeconds:           30,
		ScreenInfoTTLSeconds:      60,
		ScratchBufferBytes:        1024 * 1024,
		OverlayIdleTimeoutSeconds: 300,
		MaxConcurrentCommands:     4,
		CommandQueueSize:          64,
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("framesense")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("FRAMESENSE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("api_base_url", cfg.APIBaseURL)
	viper.Set("bridge_listen_addr", cfg.BridgeListenAddr)
	viper.Set("state_dir", cfg.StateDir)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)
	viper.Set("log_file", cfg.LogFile)
	viper.Set("cache_max_bytes", cfg.CacheMaxBytes)
	viper.Set("cache_ttl_seconds", cfg.CacheTTLSeconds)
	viper.Set("screen_info_ttl_seconds", cfg.ScreenInfoTTLSeconds)
	viper.Set("scratch_buffer_bytes", cfg.ScratchBufferBytes)
	viper.Set("overlay_idle_timeout_seconds", cfg.OverlayIdleTimeoutSeconds)
	viper.Set("max_concurrent_commands", cfg.MaxConcurrentCommands)
	viper.Set("command_queue_size", cfg.CommandQueueSize)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "framesense.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	// Owner-only: the state dir path can reveal the local account name.
	return os.Chmod(cfgPath, 0600)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "FrameSense")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "FrameSense")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "framesense")
		}
		return filepath.Join(os.Getenv("HOME"), ".config", "framesense")
	}
}

func stateDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "FrameSense")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "FrameSense")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, "framesense")
		}
		return filepath.Join(os.Getenv("HOME"), ".local", "state", "framesense")
	}
}
