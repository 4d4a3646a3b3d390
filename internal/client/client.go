// Package client implements TaskClient, the controller between the task API
// and whatever binds its view-model to a screen.
//
// Every mutation is followed by exactly one full List; the client never keeps
// its own copy of the tasks. Failures are logged with their cause and
// surfaced to the user through the Notifier as a fixed message.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskdeck/internal/task"
	"github.com/nibzard/taskdeck/internal/view"
)

// User-facing messages.
const (
	MsgLoadFailed    = "Error loading tasks"
	MsgTitleRequired = "Title is required"
	MsgCreateFailed  = "Error creating task"
	MsgUpdateFailed  = "Error updating task"
	MsgDeleteFailed  = "Error deleting task"
	PromptDelete     = "Delete this task?"
)

var (
	// ErrTitleRequired is returned by Create when the title is blank.
	ErrTitleRequired = errors.New("title is required")
	// ErrCancelled is returned by Remove when the user declines.
	ErrCancelled = errors.New("cancelled by user")
)

// API is the subset of the task API the client calls.
type API interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, d task.Draft) error
	SetCompleted(ctx context.Context, id int64, completed bool) error
	DeleteTask(ctx context.Context, id int64) error
}

// Notifier shows a blocking message to the user.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Renderer receives every successfully loaded view-model.
type Renderer interface {
	Render(m view.Model)
}

// Input is the new-task form.
type Input interface {
	Values() (title, description string)
	Clear()
}

// Fields is an in-memory Input.
type Fields struct {
	Title       string
	Description string
}

// Values implements Input.
func (f *Fields) Values() (string, string) { return f.Title, f.Description }

// Clear implements Input.
func (f *Fields) Clear() { f.Title, f.Description = "", "" }

// Mutation names passed to a MutationHook.
const (
	ActionCreate   = "create"
	ActionComplete = "complete"
	ActionReopen   = "reopen"
	ActionDelete   = "delete"
)

// MutationHook runs after a successful mutation and before the refresh.
// id is 0 for create, since the create response is not read.
type MutationHook func(ctx context.Context, action string, id int64)

// Option configures a TaskClient.
type Option func(*TaskClient)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *TaskClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMutationHook registers fn to run after each successful mutation.
func WithMutationHook(fn MutationHook) Option {
	return func(c *TaskClient) {
		c.hook = fn
	}
}

// TaskClient lists, creates, toggles and removes tasks.
type TaskClient struct {
	api       API
	notifier  Notifier
	confirmer Confirmer
	renderer  Renderer
	logger    *log.Logger
	hook      MutationHook
}

// New creates a TaskClient. All four collaborators are required.
func New(api API, notifier Notifier, confirmer Confirmer, renderer Renderer, opts ...Option) *TaskClient {
	c := &TaskClient{
		api:       api,
		notifier:  notifier,
		confirmer: confirmer,
		renderer:  renderer,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches all tasks and renders them. On failure nothing is rendered.
func (c *TaskClient) List(ctx context.Context) error {
	tasks, err := c.api.ListTasks(ctx)
	if err != nil {
		c.fail(ctx, "list", MsgLoadFailed, err)
		return fmt.Errorf("list tasks: %w", err)
	}
	c.renderer.Render(view.Render(tasks))
	return nil
}

// Create posts the input as a new task. The input is cleared only on success.
func (c *TaskClient) Create(ctx context.Context, in Input) error {
	title, description := in.Values()
	d := task.Draft{Title: title, Description: description}.Normalize()
	if err := d.Validate(); err != nil {
		c.notifier.Notify(ctx, MsgTitleRequired)
		return ErrTitleRequired
	}

	if err := c.api.CreateTask(ctx, d); err != nil {
		c.fail(ctx, "create", MsgCreateFailed, err)
		return fmt.Errorf("create task: %w", err)
	}
	c.logger.Info("task created", "title", d.Title)
	in.Clear()
	c.runHook(ctx, ActionCreate, 0)
	return c.List(ctx)
}

// Toggle sets the completed flag of task id.
func (c *TaskClient) Toggle(ctx context.Context, id int64, completed bool) error {
	if err := c.api.SetCompleted(ctx, id, completed); err != nil {
		c.fail(ctx, "update", MsgUpdateFailed, err, "id", id)
		return fmt.Errorf("update task %d: %w", id, err)
	}
	action := ActionReopen
	if completed {
		action = ActionComplete
	}
	c.logger.Info("task updated", "id", id, "completed", completed)
	c.runHook(ctx, action, id)
	return c.List(ctx)
}

// Remove deletes task id after the user confirms.
func (c *TaskClient) Remove(ctx context.Context, id int64) error {
	if !c.confirmer.Confirm(ctx, PromptDelete) {
		c.logger.Debug("delete declined", "id", id)
		return ErrCancelled
	}
	if err := c.api.DeleteTask(ctx, id); err != nil {
		c.fail(ctx, "delete", MsgDeleteFailed, err, "id", id)
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	c.logger.Info("task deleted", "id", id)
	c.runHook(ctx, ActionDelete, id)
	return c.List(ctx)
}

// Dispatch routes a view action to Toggle or Remove.
func (c *TaskClient) Dispatch(ctx context.Context, a view.Action) error {
	switch a.Kind {
	case view.ActionComplete:
		return c.Toggle(ctx, a.TaskID, true)
	case view.ActionReopen:
		return c.Toggle(ctx, a.TaskID, false)
	case view.ActionDelete:
		return c.Remove(ctx, a.TaskID)
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}

func (c *TaskClient) fail(ctx context.Context, op, msg string, err error, keyvals ...any) {
	keyvals = append([]any{"op", op, "err", err}, keyvals...)
	c.logger.Error(msg, keyvals...)
	c.notifier.Notify(ctx, msg)
}

func (c *TaskClient) runHook(ctx context.Context, action string, id int64) {
	if c.hook != nil {
		c.hook(ctx, action, id)
	}
}
