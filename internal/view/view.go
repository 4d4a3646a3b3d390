// Package view projects task lists into a rendering-agnostic view-model.
//
// Render is pure: it has no I/O and never reorders or filters. Binding
// layers (the terminal UI, the plain-text CLI output) attach behavior to the
// typed Action descriptors instead of looking handlers up by name.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/nibzard/taskdeck/internal/task"
)

// Placeholder is shown instead of an empty list.
const Placeholder = "No tasks yet"

// ActionKind identifies what an action does when dispatched.
type ActionKind string

const (
	ActionComplete ActionKind = "complete"
	ActionReopen   ActionKind = "reopen"
	ActionDelete   ActionKind = "delete"
)

// Action labels.
const (
	LabelComplete = "✓ Complete"
	LabelReopen   = "↺ Reopen"
	LabelDelete   = "🗑 Delete"
)

// Action is a typed, dispatchable descriptor attached to an item.
type Action struct {
	Kind   ActionKind
	Label  string
	TaskID int64
	// Completed is the value a toggle action sets. Unused for delete.
	Completed bool
}

// Item is one rendered task.
type Item struct {
	ID          int64
	Title       string
	Description string
	Completed   bool
	Toggle      Action
	Delete      Action
}

// HasDescription reports whether the description block should be shown.
func (i Item) HasDescription() bool {
	return i.Description != ""
}

// Actions returns the item's actions in display order.
func (i Item) Actions() []Action {
	return []Action{i.Toggle, i.Delete}
}

// Model is the rendered list. Exactly one of Items or Placeholder is set.
type Model struct {
	Items       []Item
	Placeholder string
}

// Empty reports whether the model renders the placeholder.
func (m Model) Empty() bool {
	return len(m.Items) == 0
}

// Render maps tasks to a Model, one item per task in input order.
func Render(tasks []task.Task) Model {
	if len(tasks) == 0 {
		return Model{Placeholder: Placeholder}
	}
	items := make([]Item, 0, len(tasks))
	for i := range tasks {
		items = append(items, renderItem(&tasks[i]))
	}
	return Model{Items: items}
}

func renderItem(t *task.Task) Item {
	item := Item{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Toggle:    ToggleAction(t.ID, t.Completed),
		Delete:    Action{Kind: ActionDelete, Label: LabelDelete, TaskID: t.ID},
	}
	if t.HasDescription() {
		item.Description = t.Description
	}
	return item
}

// ToggleAction returns the single toggle action for a task in the given
// state: "complete" for open tasks, "reopen" for completed ones.
func ToggleAction(id int64, completed bool) Action {
	if completed {
		return Action{Kind: ActionReopen, Label: LabelReopen, TaskID: id, Completed: false}
	}
	return Action{Kind: ActionComplete, Label: LabelComplete, TaskID: id, Completed: true}
}

// WriteText writes a plain-text rendering of m, one task per line.
func WriteText(w io.Writer, m Model) error {
	if m.Empty() {
		_, err := fmt.Fprintln(w, m.Placeholder)
		return err
	}
	for _, item := range m.Items {
		if _, err := fmt.Fprintln(w, FormatItem(item)); err != nil {
			return err
		}
		if item.HasDescription() {
			if _, err := fmt.Fprintf(w, "      %s\n", item.Description); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatItem formats the headline of an item for line-oriented output.
func FormatItem(item Item) string {
	mark := " "
	if item.Completed {
		mark = "x"
	}
	return fmt.Sprintf("  [%s] #%d %s", mark, item.ID, singleLine(item.Title))
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
