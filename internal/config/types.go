package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultBaseURL    = "http://127.0.0.1:5000"
	DefaultLogDir     = "~/.taskdeck"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultServerAddr = "127.0.0.1:5000"
)

// Config holds the full configuration for taskdeck.
type Config struct {
	// BaseURL is the task API root, without a trailing slash.
	BaseURL string `toml:"base_url"`

	LogDir string `toml:"log_dir"`

	// Hooks
	HookCommand string `toml:"hook_command"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Reference server
	Server ServerConfig `toml:"server"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// ServerConfig configures `taskdeck serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}
