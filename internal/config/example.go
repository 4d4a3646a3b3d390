package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskdeck configuration file
# Values can be overridden by TASKDECK_* environment variables or CLI flags

# Task API root (no trailing slash needed)
base_url = "http://127.0.0.1:5000"

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.taskdeck"

# Logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false

# Command run after each successful create, complete, reopen or delete.
# It receives <action> [<task-id>] as arguments and TASKDECK_BASE_URL in
# its environment. Failures are logged and otherwise ignored.
# hook_command = "/path/to/hook.sh"

# Reference server started by "taskdeck serve"
[server]
addr = "127.0.0.1:5000"
`
}
