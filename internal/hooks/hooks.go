// Package hooks invokes an external command after task mutations.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// WaitDelay bounds how long Invoke waits for the hook's output to close after
// its context ends.
var WaitDelay = time.Second

// EnvBaseURL is set in the hook's environment to the API base URL.
const EnvBaseURL = "TASKDECK_BASE_URL"

// Options configures a hook invocation.
type Options struct {
	// Command is the executable, optionally followed by fixed arguments.
	Command string
	Action  string
	TaskID  int64 // 0 when unknown, e.g. after create
	BaseURL string
	WorkDir string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
}

// Invoke runs the hook command with arguments <action> [<task-id>].
func Invoke(ctx context.Context, opts Options) (Result, error) {
	fields := strings.Fields(opts.Command)
	if len(fields) == 0 || opts.Action == "" {
		return Result{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	args := append(fields[1:], opts.Action)
	if opts.TaskID > 0 {
		args = append(args, strconv.FormatInt(opts.TaskID, 10))
	}

	cmd := exec.CommandContext(ctx, fields[0], args...)
	// Grandchildren can hold the output pipes open after the hook is killed.
	cmd.WaitDelay = WaitDelay
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Env = os.Environ()
	if opts.BaseURL != "" {
		cmd.Env = append(cmd.Env, EnvBaseURL+"="+opts.BaseURL)
	}
	cmd.Stdout = writerOr(opts.Stdout, os.Stdout)
	cmd.Stderr = writerOr(opts.Stderr, os.Stderr)

	err := cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

// Runner returns a mutation callback that invokes the hook with base and
// logs failures instead of returning them. It returns nil when base has no
// command.
func Runner(base Options, logger *log.Logger) func(ctx context.Context, action string, id int64) {
	if strings.TrimSpace(base.Command) == "" {
		return nil
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return func(ctx context.Context, action string, id int64) {
		opts := base
		opts.Action = action
		opts.TaskID = id
		result, err := Invoke(ctx, opts)
		if err != nil {
			logger.Warn("hook failed", "action", action, "id", id, "exit_code", result.ExitCode, "err", err)
			return
		}
		logger.Debug("hook ran", "command", strings.Join(result.Command, " "))
	}
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
