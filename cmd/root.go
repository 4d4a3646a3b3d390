// Package cmd implements the CLI command structure for taskdeck.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskdeck/internal/api"
	"github.com/nibzard/taskdeck/internal/client"
	"github.com/nibzard/taskdeck/internal/config"
	"github.com/nibzard/taskdeck/internal/export"
	"github.com/nibzard/taskdeck/internal/hooks"
	"github.com/nibzard/taskdeck/internal/logging"
	"github.com/nibzard/taskdeck/internal/server"
	"github.com/nibzard/taskdeck/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// ErrReported marks a failure the user has already been shown. main exits
// non-zero without printing it again.
var ErrReported = errors.New("already reported")

type reportedError struct{ err error }

func (e reportedError) Error() string   { return e.err.Error() }
func (e reportedError) Unwrap() []error { return []error{e.err, ErrReported} }

// streams are the standard streams a command talks to.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// env is what every subcommand gets: the loaded config and its streams.
type env struct {
	streams
	cws *config.ConfigWithSources
	cfg *config.Config
}

// Run executes the taskdeck CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func run(ctx context.Context, args []string, s streams) error {
	fs := flag.NewFlagSet("taskdeck", flag.ContinueOnError)
	fs.SetOutput(s.err)
	fs.Usage = func() {
		printUsage(fs, s.err)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, s.out)
		return nil
	}
	if *showVersion {
		return versionCommand(s.out)
	}
	e := &env{streams: s, cws: cws, cfg: cws.Config}

	// Without a subcommand, open the TUI on a terminal and list otherwise.
	subcommand := "ls"
	if s.out == os.Stdout && ui.IsTTY(os.Stdout) {
		subcommand = "tui"
	}
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, e, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, e, remainingArgs)
	case "add":
		return addCommand(ctx, e, remainingArgs)
	case "done":
		return toggleCommand(ctx, e, "done", true, remainingArgs)
	case "reopen", "undo":
		return toggleCommand(ctx, e, "reopen", false, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, e, remainingArgs)
	case "export":
		return exportCommand(ctx, e, remainingArgs)
	case "serve":
		return serveCommand(ctx, e, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, e, remainingArgs)
	case "tail":
		return tailCommand(ctx, e, remainingArgs)
	case "config":
		return configCommand(e, remainingArgs)
	case "init":
		return initCommand(e, remainingArgs)
	case "version":
		return versionCommand(s.out)
	case "help":
		printUsage(fs, s.out)
		return nil
	default:
		fmt.Fprintf(s.err, "Unknown command: %s\n", subcommand)
		printUsage(fs, s.err)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// consoleLogger logs to stderr, as configured.
func (e *env) consoleLogger() *log.Logger {
	return logging.NewFromConfig(e.err, e.cfg.LogLevel, e.cfg.LogFormat, e.cfg.LogTimestamps, e.cfg.LogCaller)
}

func (e *env) apiClient(logger *log.Logger) (*api.Client, error) {
	return api.New(e.cfg.BaseURL,
		api.WithLogger(logger),
		api.WithUserAgent("taskdeck/"+Version),
	)
}

// taskClient wires a TaskClient with the configured hook. Hook output goes to
// hookOut.
func (e *env) taskClient(logger *log.Logger, n client.Notifier, c client.Confirmer, r client.Renderer, hookOut io.Writer) (*client.TaskClient, error) {
	apiClient, err := e.apiClient(logger)
	if err != nil {
		return nil, err
	}
	hook := hooks.Runner(hooks.Options{
		Command: e.cfg.HookCommand,
		BaseURL: e.cfg.BaseURL,
		WorkDir: e.cfg.ProjectRoot,
		Stdout:  hookOut,
		Stderr:  hookOut,
	}, logger)
	return client.New(apiClient, n, c, r,
		client.WithLogger(logger),
		client.WithMutationHook(hook),
	), nil
}

// cliClient is a TaskClient bound to plain-text output.
func (e *env) cliClient(assumeYes bool) (*client.TaskClient, *textRenderer, error) {
	logger := e.consoleLogger()
	r := &textRenderer{w: e.out}
	confirmer := &promptConfirmer{in: bufio.NewReader(e.in), out: e.err, assumeYes: assumeYes}
	tc, err := e.taskClient(logger, &textNotifier{w: e.err}, confirmer, r, e.err)
	if err != nil {
		return nil, nil, err
	}
	return tc, r, nil
}

// tuiCommand launches the TUI. Logs go to a per-run file since the terminal
// belongs to the interface.
func tuiCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck tui", flag.ContinueOnError)
	fs.SetOutput(e.err)
	inline := fs.Bool("inline", false, "Render inline instead of using the alternate screen")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	runLog, err := logging.NewRunLogger(e.cfg.LogDir, e.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()
	logger := runLog.Logger(e.cfg.LogLevel)
	logger.Info("tui started", "base_url", e.cfg.BaseURL, "version", Version)

	bridge := ui.NewBridge()
	tc, err := e.taskClient(logger, bridge, bridge, bridge, runLog.Writer())
	if err != nil {
		return err
	}
	return ui.RunTUI(ctx, tc, bridge,
		ui.WithSubtitle(e.cfg.BaseURL),
		ui.WithAltScreen(!*inline),
	)
}

// lsCommand lists tasks.
func lsCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck ls", flag.ContinueOnError)
	fs.SetOutput(e.err)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	tc, r, err := e.cliClient(false)
	if err != nil {
		return err
	}
	if err := tc.List(ctx); err != nil {
		return err
	}
	return r.err
}

// addCommand creates a task from the remaining words.
func addCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck add", flag.ContinueOnError)
	fs.SetOutput(e.err)
	description := fs.String("d", "", "Task description")
	fs.StringVar(description, "description", "", "Task description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tc, r, err := e.cliClient(false)
	if err != nil {
		return err
	}
	in := &client.Fields{Title: strings.Join(fs.Args(), " "), Description: *description}
	if err := tc.Create(ctx, in); err != nil {
		if errors.Is(err, client.ErrTitleRequired) {
			return reportedError{err}
		}
		return err
	}
	return r.err
}

func toggleCommand(ctx context.Context, e *env, name string, completed bool, args []string) error {
	fs := flag.NewFlagSet("taskdeck "+name, flag.ContinueOnError)
	fs.SetOutput(e.err)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args())
	if err != nil {
		return err
	}
	tc, r, err := e.cliClient(false)
	if err != nil {
		return err
	}
	if err := tc.Toggle(ctx, id, completed); err != nil {
		return err
	}
	return r.err
}

func rmCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck rm", flag.ContinueOnError)
	fs.SetOutput(e.err)
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	fs.BoolVar(yes, "yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args())
	if err != nil {
		return err
	}
	tc, r, err := e.cliClient(*yes)
	if err != nil {
		return err
	}
	if err := tc.Remove(ctx, id); err != nil {
		if errors.Is(err, client.ErrCancelled) {
			fmt.Fprintln(e.err, "Cancelled.")
			return nil
		}
		return err
	}
	return r.err
}

// exportCommand writes the current task list to a file or stdout.
func exportCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck export", flag.ContinueOnError)
	fs.SetOutput(e.err)
	formatName := fs.String("format", "", "Export format (json, csv, yaml, pdf); default from -o extension, else json")
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	format := export.JSON
	if *formatName != "" {
		f, err := export.ParseFormat(*formatName)
		if err != nil {
			return err
		}
		format = f
	} else if f, ok := export.FormatFromPath(*output); ok {
		format = f
	}
	if format == export.PDF && *output == "" && e.out == os.Stdout && ui.IsTTY(os.Stdout) {
		return fmt.Errorf("refusing to write PDF to a terminal; use -o")
	}

	logger := e.consoleLogger()
	apiClient, err := e.apiClient(logger)
	if err != nil {
		return err
	}
	tasks, err := apiClient.ListTasks(ctx)
	if err != nil {
		fmt.Fprintln(e.err, client.MsgLoadFailed)
		return fmt.Errorf("list tasks: %w", err)
	}

	if *output == "" {
		return export.Write(e.out, format, tasks)
	}
	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *output, err)
	}
	if err := export.Write(f, format, tasks); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("exported tasks", "count", len(tasks), "format", format, "path", *output)
	return nil
}

// serveCommand runs the in-memory reference server.
func serveCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck serve", flag.ContinueOnError)
	fs.SetOutput(e.err)
	addr := fs.String("addr", e.cfg.Server.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	logger := e.consoleLogger()
	srv := server.New(server.NewStore(), logger)
	return server.ListenAndServe(ctx, *addr, srv.Handler(), logger, nil)
}

// doctorCommand checks config, connectivity and the list payload.
func doctorCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck doctor", flag.ContinueOnError)
	fs.SetOutput(e.err)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w := e.out

	fmt.Fprintln(w, "taskdeck doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config:")
	if file := e.cws.GetConfigFile(); file != "" {
		fmt.Fprintf(w, "  ✅ File: %s\n", file)
	} else {
		fmt.Fprintln(w, "  ⚠️  No config file (defaults in use; see taskdeck init)")
	}
	fmt.Fprintf(w, "  ✅ Base URL: %s (%s)\n", e.cfg.BaseURL, e.cws.Sources["base_url"])
	if e.cfg.HookCommand != "" {
		fmt.Fprintf(w, "  ✅ Hook: %s\n", e.cfg.HookCommand)
	}
	fmt.Fprintln(w)

	apiClient, err := e.apiClient(e.consoleLogger())
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Server:")
	health, err := apiClient.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Health: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "  ✅ Health: %s\n", health.Status)
	}

	tasks, err := apiClient.ListTasks(ctx)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Task list: %v\n", err)
		allOK = false
	} else {
		done := 0
		for _, t := range tasks {
			if t.Completed {
				done++
			}
		}
		fmt.Fprintf(w, "  ✅ Task list: %d tasks, %d completed\n", len(tasks), done)
		if *verbose {
			for _, t := range tasks {
				fmt.Fprintf(w, "    - #%d %s (completed=%t)\n", t.ID, t.Title, t.Completed)
			}
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Log directory: %s\n", e.cfg.LogDir)
	if info, err := os.Stat(e.cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "  ⚠️  Not found (will be created by the tui)")
		} else {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(w, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ OK")
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed. taskdeck may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// tailCommand tails the latest TUI run log for the configured server.
func tailCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck tail", flag.ContinueOnError)
	fs.SetOutput(e.err)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := logging.FindLogDir(e.cfg.LogDir, e.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(e.out, "No log files found.")
		return nil
	}

	fmt.Fprintf(e.err, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(e.err, "(Ctrl+C to stop)")
	}
	return logging.TailLog(ctx, e.out, logPath, *n, *follow)
}

// configCommand prints the effective configuration and where each value came from.
func configCommand(e *env, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	cfg := e.cfg
	values := map[string]string{
		"base_url":       cfg.BaseURL,
		"log_dir":        cfg.LogDir,
		"hook_command":   cfg.HookCommand,
		"log_level":      cfg.LogLevel,
		"log_format":     cfg.LogFormat,
		"log_timestamps": strconv.FormatBool(cfg.LogTimestamps),
		"log_caller":     strconv.FormatBool(cfg.LogCaller),
		"server.addr":    cfg.Server.Addr,
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, f := range e.cws.Files {
		fmt.Fprintf(e.out, "# read %s\n", f)
	}
	for _, k := range keys {
		fmt.Fprintf(e.out, "%-15s = %-32q # %s\n", k, values[k], e.cws.Sources[k])
	}
	return nil
}

// initCommand writes an example config file.
func initCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("taskdeck init", flag.ContinueOnError)
	fs.SetOutput(e.err)
	user := fs.Bool("user", false, "Write the user config instead of ./taskdeck.toml")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := config.ProjectConfigPath()
	if *user {
		p, err := config.UserConfigPath()
		if err != nil {
			return fmt.Errorf("resolving user config path: %w", err)
		}
		path = p
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(e.out, "Wrote %s\n", path)
	return nil
}

func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "taskdeck %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskdeck - a terminal client for a task API")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskdeck [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                 Interactive terminal UI (default on a terminal)")
	fmt.Fprintln(w, "  ls                  List tasks (default otherwise)")
	fmt.Fprintln(w, "  add [-d desc] title Create a task")
	fmt.Fprintln(w, "  done <id>           Mark a task completed")
	fmt.Fprintln(w, "  reopen <id>         Mark a task not completed")
	fmt.Fprintln(w, "  rm [-y] <id>        Delete a task after confirmation")
	fmt.Fprintln(w, "  export              Export tasks (-format json|csv|yaml|pdf, -o file)")
	fmt.Fprintln(w, "  serve [-addr a]     Run the in-memory reference API server")
	fmt.Fprintln(w, "  doctor              Check config and server connectivity")
	fmt.Fprintln(w, "  tail [-f] [-n N]    Tail the latest TUI log")
	fmt.Fprintln(w, "  config              Show effective configuration and sources")
	fmt.Fprintln(w, "  init [-user]        Write an example config file")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one task id, got %d arguments", len(args))
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", args[0])
	}
	return id, nil
}
