package config

import (
	"os"
	"strings"
)

// loadFromEnv overrides config from environment variables and updates
// source tracking.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	setEnv := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	// TASKDECK_API_URL is an alias; TASKDECK_BASE_URL wins when both are set.
	if v := os.Getenv("TASKDECK_API_URL"); v != "" {
		cfg.BaseURL = v
		setEnv("base_url")
	}
	if v := os.Getenv("TASKDECK_BASE_URL"); v != "" {
		cfg.BaseURL = v
		setEnv("base_url")
	}
	if v := os.Getenv("TASKDECK_LOG_DIR"); v != "" {
		cfg.LogDir = v
		setEnv("log_dir")
	}
	if v := os.Getenv("TASKDECK_HOOK"); v != "" {
		cfg.HookCommand = v
		setEnv("hook_command")
	}

	// PORT follows the usual PaaS convention and binds all interfaces.
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + strings.TrimSpace(v)
		setEnv("server.addr")
	}
	if v := os.Getenv("TASKDECK_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
		setEnv("server.addr")
	}

	// Logging configuration
	if v := os.Getenv("TASKDECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		setEnv("log_level")
	}
	if v := os.Getenv("TASKDECK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		setEnv("log_format")
	}
	if v := os.Getenv("TASKDECK_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		setEnv("log_timestamps")
	}
	if v := os.Getenv("TASKDECK_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		setEnv("log_caller")
	}
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
