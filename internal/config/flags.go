package config

import (
	"flag"
)

// parseFlags defines the global flags on fs, parses args, and applies only
// the flags that were explicitly set. Remaining arguments stay in fs.Args().
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet(appName, flag.ContinueOnError)
	}

	var (
		baseURL, logDir, hook string
		logLevel, logFormat   string
		logTimestamps         bool
		logCaller             bool
	)
	fs.StringVar(&baseURL, "base-url", cfg.BaseURL, "Task API base URL")
	fs.StringVar(&logDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&hook, "hook", cfg.HookCommand, "Hook command to run after each successful change")
	fs.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&logTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&logCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Map flag names to source field names
	flagToSource := map[string]string{
		"base-url":       "base_url",
		"log-dir":        "log_dir",
		"hook":           "hook_command",
		"log-level":      "log_level",
		"log-format":     "log_format",
		"log-timestamps": "log_timestamps",
		"log-caller":     "log_caller",
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = baseURL
		case "log-dir":
			cfg.LogDir = logDir
		case "hook":
			cfg.HookCommand = hook
		case "log-level":
			cfg.LogLevel = logLevel
		case "log-format":
			cfg.LogFormat = logFormat
		case "log-timestamps":
			cfg.LogTimestamps = logTimestamps
		case "log-caller":
			cfg.LogCaller = logCaller
		}
		if fieldName, ok := flagToSource[f.Name]; ok && sources != nil {
			sources[fieldName] = SourceFlag
		}
	})

	return nil
}
