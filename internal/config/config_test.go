package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

var envVars = []string{
	"TASKDECK_BASE_URL", "TASKDECK_API_URL", "TASKDECK_LOG_DIR", "TASKDECK_HOOK",
	"TASKDECK_SERVER_ADDR", "PORT", "TASKDECK_LOG_LEVEL", "TASKDECK_LOG_FORMAT",
	"TASKDECK_LOG_TIMESTAMPS", "TASKDECK_LOG_CALLER",
}

// isolate points HOME and the working directory at fresh temp dirs and
// clears every variable the loader reads.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, v := range envVars {
		t.Setenv(v, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(project); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("taskdeck", flag.ContinueOnError)
}

func TestDefaults(t *testing.T) {
	home, project := isolate(t)

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources() error = %v", err)
	}
	cfg := cws.Config
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: got %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.LogDir != filepath.Join(home, ".taskdeck") {
		t.Errorf("LogDir: got %q, want expanded ~/.taskdeck", cfg.LogDir)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr: got %q", cfg.Server.Addr)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	wantRoot, _ := filepath.EvalSymlinks(project)
	gotRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot)
	if gotRoot != wantRoot {
		t.Errorf("ProjectRoot: got %q, want %q", gotRoot, wantRoot)
	}
	for _, field := range configFields() {
		if cws.Sources[field] != SourceDefault {
			t.Errorf("source of %s = %q, want default", field, cws.Sources[field])
		}
	}
	if cws.GetConfigFile() != "" {
		t.Errorf("GetConfigFile() = %q, want none", cws.GetConfigFile())
	}
}

func TestLayering(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, ".taskdeck", "taskdeck.toml"), `
base_url = "http://user.example:8000/"
log_level = "debug"
hook_command = "user-hook"
`)
	writeFile(t, "taskdeck.toml", `
base_url = "http://project.example:9000"

[server]
addr = "0.0.0.0:7000"
`)
	t.Setenv("TASKDECK_LOG_LEVEL", "warn")

	fs := newFlagSet()
	cws, err := LoadWithSources(fs, []string{"-hook", "flag-hook", "ls", "-x"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := cws.Config

	tests := []struct {
		field  string
		got    string
		want   string
		source ConfigSource
	}{
		{"base_url", cfg.BaseURL, "http://project.example:9000", SourceProjFile},
		{"log_level", cfg.LogLevel, "warn", SourceEnv},
		{"hook_command", cfg.HookCommand, "flag-hook", SourceFlag},
		{"server.addr", cfg.Server.Addr, "0.0.0.0:7000", SourceProjFile},
		{"log_format", cfg.LogFormat, "text", SourceDefault},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
		if cws.Sources[tt.field] != tt.source {
			t.Errorf("source of %s = %q, want %q", tt.field, cws.Sources[tt.field], tt.source)
		}
	}

	if got := fs.Args(); len(got) != 2 || got[0] != "ls" {
		t.Errorf("remaining args = %v, want [ls -x]", got)
	}
	if len(cws.Files) != 2 || cws.GetConfigFile() != "taskdeck.toml" {
		t.Errorf("Files = %v", cws.Files)
	}
}

func TestUserFileTrailingSlashTrimmed(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, ".taskdeck", "taskdeck.toml"), `base_url = "http://user.example:8000/"`)

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "http://user.example:8000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestXDGUserFile(t *testing.T) {
	home, _ := isolate(t)
	if cfgDir := osUserConfigDir(); cfgDir == "" || !strings.HasPrefix(cfgDir, home) {
		t.Skip("no isolated OS config dir on this platform")
	}
	writeFile(t, filepath.Join(osUserConfigDir(), "taskdeck", "taskdeck.toml"), `log_format = "json"`)

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cws.Config.LogFormat != "json" || cws.Sources["log_format"] != SourceUserFile {
		t.Errorf("log_format = %q from %q", cws.Config.LogFormat, cws.Sources["log_format"])
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "api url alias",
			env:  map[string]string{"TASKDECK_API_URL": "http://alias:1"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.BaseURL != "http://alias:1" {
					t.Errorf("BaseURL = %q", cfg.BaseURL)
				}
			},
		},
		{
			name: "base url beats alias",
			env:  map[string]string{"TASKDECK_API_URL": "http://alias:1", "TASKDECK_BASE_URL": "http://base:2"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.BaseURL != "http://base:2" {
					t.Errorf("BaseURL = %q", cfg.BaseURL)
				}
			},
		},
		{
			name: "port binds all interfaces",
			env:  map[string]string{"PORT": "8080"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Addr != ":8080" {
					t.Errorf("Server.Addr = %q", cfg.Server.Addr)
				}
			},
		},
		{
			name: "explicit server addr beats port",
			env:  map[string]string{"PORT": "8080", "TASKDECK_SERVER_ADDR": "127.0.0.1:9"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Addr != "127.0.0.1:9" {
					t.Errorf("Server.Addr = %q", cfg.Server.Addr)
				}
			},
		},
		{
			name: "booleans",
			env:  map[string]string{"TASKDECK_LOG_TIMESTAMPS": "yes", "TASKDECK_LOG_CALLER": "0"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.LogTimestamps || cfg.LogCaller {
					t.Errorf("timestamps=%v caller=%v", cfg.LogTimestamps, cfg.LogCaller)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range envVars {
				t.Setenv(v, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := &Config{}
			setDefaults(cfg)
			loadFromEnv(cfg, nil)
			tt.check(t, cfg)
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Run("bad base url", func(t *testing.T) {
		isolate(t)
		if _, err := Load(newFlagSet(), []string{"-base-url", "localhost:5000"}); err == nil {
			t.Error("expected error for scheme-less base URL")
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		isolate(t)
		writeFile(t, ".taskdeck.toml", `base_uri = "http://typo"`)
		_, err := Load(newFlagSet(), nil)
		if err == nil || !strings.Contains(err.Error(), "base_uri") {
			t.Errorf("error = %v, want unknown key error", err)
		}
	})

	t.Run("malformed toml", func(t *testing.T) {
		isolate(t)
		writeFile(t, "taskdeck.toml", `base_url = `)
		if _, err := Load(newFlagSet(), nil); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		isolate(t)
		fs := newFlagSet()
		fs.SetOutput(&strings.Builder{})
		if _, err := Load(fs, []string{"-nope"}); err == nil {
			t.Error("expected flag error")
		}
	})
}

func TestExampleConfigDecodes(t *testing.T) {
	cfg := &Config{}
	md, err := toml.Decode(ExampleConfig(), cfg)
	if err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if len(md.Undecoded()) > 0 {
		t.Errorf("example config has unknown keys: %v", md.Undecoded())
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("example config drifted from defaults: %+v", cfg)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("TASKDECK_TEST_DIR", "/var/tmp")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/logs", filepath.Join(home, "logs")},
		{"$TASKDECK_TEST_DIR/logs", "/var/tmp/logs"},
		{"/abs/path", "/abs/path"},
		{"~other/logs", "~other/logs"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"notify-send", "notify-send"},
		{"~/bin/hook.sh  --quiet ~/x", filepath.Join(home, "bin/hook.sh") + " --quiet ~/x"},
	}
	for _, tt := range tests {
		if got := expandCommand(tt.in); got != tt.want {
			t.Errorf("expandCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBoolFromString(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", " yes ", "on"} {
		if !boolFromString(s) {
			t.Errorf("boolFromString(%q) = false", s)
		}
	}
	for _, s := range []string{"", "0", "false", "off", "nope"} {
		if boolFromString(s) {
			t.Errorf("boolFromString(%q) = true", s)
		}
	}
}
