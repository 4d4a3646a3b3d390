// Package logging provides tests for loggers, run logs and tail output.
package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{" error ", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormatter(t *testing.T) {
	if ParseFormatter("json") != log.JSONFormatter {
		t.Error("json should map to JSONFormatter")
	}
	if ParseFormatter("logfmt") != log.LogfmtFormatter {
		t.Error("logfmt should map to LogfmtFormatter")
	}
	if ParseFormatter("fancy") != log.TextFormatter {
		t.Error("unknown formats should fall back to TextFormatter")
	}
}

func TestNewFromConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFromConfig(&buf, "warn", "logfmt", false, false)

	logger.Info("hidden")
	logger.Warn("request failed", "op", "list")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "request failed") || !strings.Contains(out, "op=list") {
		t.Errorf("expected warn message with fields, got %q", out)
	}
}

func TestNewRunLogger(t *testing.T) {
	t.Run("creates scoped log file", func(t *testing.T) {
		base := t.TempDir()
		rl, err := NewRunLogger(base, "http://127.0.0.1:5000")
		if err != nil {
			t.Fatalf("NewRunLogger() error = %v", err)
		}
		defer rl.Close()

		if rl.RunID == "" {
			t.Error("expected RunID to be set")
		}
		if !strings.HasPrefix(filepath.Base(rl.Dir), "127.0.0.1_5000-") {
			t.Errorf("Dir = %s, want host slug prefix", rl.Dir)
		}
		if _, err := os.Stat(rl.LogPath); err != nil {
			t.Errorf("log file not created: %v", err)
		}
	})

	t.Run("empty base dir returns error", func(t *testing.T) {
		_, err := NewRunLogger("", "http://example.com")
		if err == nil || !strings.Contains(err.Error(), "empty") {
			t.Fatalf("expected empty dir error, got %v", err)
		}
	})

	t.Run("logger writes json lines", func(t *testing.T) {
		rl, err := NewRunLogger(t.TempDir(), "http://example.com")
		if err != nil {
			t.Fatal(err)
		}
		rl.Logger("debug").Error("list tasks failed", "kind", "status")
		if err := rl.Close(); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(rl.LogPath)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(data, []byte(`"msg":"list tasks failed"`)) || !bytes.Contains(data, []byte(`"kind":"status"`)) {
			t.Errorf("unexpected log contents: %s", data)
		}
	})

	t.Run("close nil logger", func(t *testing.T) {
		var rl *RunLogger
		if err := rl.Close(); err != nil {
			t.Errorf("Close() on nil = %v", err)
		}
	})
}

func TestFindLogDir(t *testing.T) {
	base := t.TempDir()
	a, err := FindLogDir(base, "http://a.example:5000")
	if err != nil {
		t.Fatal(err)
	}
	b, err := FindLogDir(base, "http://b.example:5000")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("different scopes share a log dir: %s", a)
	}
	again, _ := FindLogDir(base, "http://a.example:5000")
	if a != again {
		t.Errorf("FindLogDir not stable: %s vs %s", a, again)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"":                 "default",
		"127.0.0.1:5000":   "127.0.0.1_5000",
		"tasks.example.io": "tasks.example.io",
		"a//b??c":          "a_b_c",
		":::":              "default",
	}
	for input, want := range tests {
		if got := slugify(input); got != want {
			t.Errorf("slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFindLatestLog(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		got, err := FindLatestLog(filepath.Join(t.TempDir(), "nope"))
		if err != nil || got != "" {
			t.Errorf("FindLatestLog() = %q, %v; want empty, nil", got, err)
		}
	})

	t.Run("picks newest jsonl", func(t *testing.T) {
		dir := t.TempDir()
		older := filepath.Join(dir, "older.jsonl")
		newer := filepath.Join(dir, "newer.jsonl")
		other := filepath.Join(dir, "notes.txt")
		for _, p := range []string{older, newer, other} {
			if err := os.WriteFile(p, []byte("{}\n"), 0644); err != nil {
				t.Fatal(err)
			}
		}
		past := time.Now().Add(-time.Hour)
		if err := os.Chtimes(older, past, past); err != nil {
			t.Fatal(err)
		}
		future := time.Now().Add(time.Hour)
		if err := os.Chtimes(other, future, future); err != nil {
			t.Fatal(err)
		}

		got, err := FindLatestLog(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got != newer {
			t.Errorf("FindLatestLog() = %s, want %s", got, newer)
		}
	})
}

func TestTailLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	var content strings.Builder
	for i := 0; i < 50; i++ {
		content.WriteString(strings.Repeat("x", 150))
		content.WriteString("\n")
	}
	content.WriteString("last line\n")
	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("whole file", func(t *testing.T) {
		var buf bytes.Buffer
		if err := TailLog(context.Background(), &buf, path, 0, false); err != nil {
			t.Fatal(err)
		}
		if buf.String() != content.String() {
			t.Errorf("got %d bytes, want %d", buf.Len(), content.Len())
		}
	})

	t.Run("last lines only", func(t *testing.T) {
		var buf bytes.Buffer
		if err := TailLog(context.Background(), &buf, path, 2, false); err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(buf.String(), "last line\n") {
			t.Errorf("tail output does not end with last line: %q", buf.String())
		}
		if buf.Len() >= content.Len() {
			t.Errorf("tail returned the whole file")
		}
	})

	t.Run("follow stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()
		var buf bytes.Buffer
		if err := TailLog(ctx, &buf, path, 1, true); err != nil {
			t.Fatalf("TailLog() error = %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		err := TailLog(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "x.jsonl"), 0, false)
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
