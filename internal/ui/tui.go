// Package ui provides the interactive terminal interface.
//
// The model owns the screen and is only written from Update. Client
// operations run as commands; their render, notify and confirm callbacks come
// back through a Bridge as messages.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/taskdeck/internal/client"
	"github.com/nibzard/taskdeck/internal/view"
)

// Controller is the part of client.TaskClient the UI drives.
type Controller interface {
	List(ctx context.Context) error
	Create(ctx context.Context, in client.Input) error
	Dispatch(ctx context.Context, a view.Action) error
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	subtitle  string
	altScreen bool
	input     io.Reader
	output    io.Writer
}

// WithSubtitle shows s under the title, typically the API base URL.
func WithSubtitle(s string) TUIOption {
	return func(c *tuiConfig) {
		c.subtitle = s
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.altScreen = enabled
	}
}

// WithIO overrides the program's input and output.
func WithIO(in io.Reader, out io.Writer) TUIOption {
	return func(c *tuiConfig) {
		c.input = in
		c.output = out
	}
}

// RunTUI runs the interface until the user quits or ctx is cancelled.
// bridge must be the Renderer, Notifier and Confirmer ctl was built with.
func RunTUI(ctx context.Context, ctl Controller, bridge *Bridge, opts ...TUIOption) error {
	c := &tuiConfig{altScreen: true}
	for _, opt := range opts {
		opt(c)
	}
	if c.output == nil && !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	// Cancelled on exit so commands blocked on a dialog return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newTUIModel(ctx, ctl, c.subtitle)
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.altScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if c.input != nil {
		programOpts = append(programOpts, tea.WithInput(c.input))
	}
	if c.output != nil {
		programOpts = append(programOpts, tea.WithOutput(c.output))
	}
	program := tea.NewProgram(model, programOpts...)
	bridge.attach(program.Send)
	defer bridge.attach(nil)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeHelp
)

type dialogKind int

const (
	dialogNotice dialogKind = iota
	dialogConfirm
)

type dialog struct {
	kind  dialogKind
	text  string
	reply chan<- bool
}

type (
	renderMsg struct{ model view.Model }
	dialogMsg struct{ dialog dialog }
	opDoneMsg struct {
		op    string
		err   error
		input *formInput
	}
)

// formInput is a snapshot of the form handed to Create. Clear is called from
// the command goroutine, so it only sets a flag the model reads later.
type formInput struct {
	title, description string
	cleared            atomic.Bool
}

func (f *formInput) Values() (string, string) { return f.title, f.description }
func (f *formInput) Clear()                   { f.cleared.Store(true) }

// Field limits for the new-task form.
const (
	titleCharLimit       = 200
	descriptionCharLimit = 1000
)

type form struct {
	title, description textinput.Model
	focus              int // 0 title, 1 description
}

func newForm() form {
	title := textinput.New()
	title.Prompt = ""
	title.Placeholder = "What needs doing?"
	title.CharLimit = titleCharLimit

	description := textinput.New()
	description.Prompt = ""
	description.Placeholder = "optional"
	description.CharLimit = descriptionCharLimit

	f := form{title: title, description: description}
	f.focusField(0)
	return f
}

// focusField moves the caret to field i and blurs the other one.
func (f *form) focusField(i int) tea.Cmd {
	f.focus = i
	if i == 0 {
		f.description.Blur()
		return f.title.Focus()
	}
	f.title.Blur()
	return f.description.Focus()
}

// update forwards msg to the focused field.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.title, cmd = f.title.Update(msg)
	} else {
		f.description, cmd = f.description.Update(msg)
	}
	return cmd
}

func (f *form) reset() {
	f.title.Reset()
	f.description.Reset()
	f.focusField(0)
}

type tuiModel struct {
	ctx      context.Context
	ctl      Controller
	subtitle string

	list    view.Model
	loaded  bool
	cursor  int
	mode    mode
	form    form
	dialogs []dialog
}

func newTUIModel(ctx context.Context, ctl Controller, subtitle string) *tuiModel {
	return &tuiModel{ctx: ctx, ctl: ctl, subtitle: subtitle, form: newForm()}
}

func (m *tuiModel) Init() tea.Cmd {
	return m.run("list", nil, func(ctx context.Context) error { return m.ctl.List(ctx) })
}

// run wraps a controller call as a command that reports back with opDoneMsg.
func (m *tuiModel) run(op string, in *formInput, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx), input: in}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderMsg:
		m.list = msg.model
		m.loaded = true
		m.clampCursor()
		return m, nil
	case dialogMsg:
		m.dialogs = append(m.dialogs, msg.dialog)
		return m, nil
	case opDoneMsg:
		if msg.input != nil && msg.input.cleared.Load() {
			m.form.reset()
			if m.mode == modeForm {
				m.mode = modeList
			}
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if len(m.dialogs) > 0 {
			return m.updateDialog(msg)
		}
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeHelp:
			m.mode = modeList
			return m, nil
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.list.Items)-1 {
			m.cursor++
		}
	case "r", "f5":
		return m, m.run("list", nil, func(ctx context.Context) error { return m.ctl.List(ctx) })
	case "n", "a":
		m.mode = modeForm
		return m, m.form.focusField(0)
	case "?", "h":
		m.mode = modeHelp
	case " ", "space", "enter", "x":
		if item, ok := m.selected(); ok {
			return m, m.dispatch(item.Toggle)
		}
	case "d", "delete":
		if item, ok := m.selected(); ok {
			return m, m.dispatch(item.Delete)
		}
	}
	return m, nil
}

func (m *tuiModel) dispatch(a view.Action) tea.Cmd {
	ctl := m.ctl
	return m.run(string(a.Kind), nil, func(ctx context.Context) error { return ctl.Dispatch(ctx, a) })
}

func (m *tuiModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		return m, m.form.focusField(1 - m.form.focus)
	case tea.KeyEnter:
		in := &formInput{title: m.form.title.Value(), description: m.form.description.Value()}
		ctl := m.ctl
		return m, m.run("create", in, func(ctx context.Context) error { return ctl.Create(ctx, in) })
	}
	return m, m.form.update(msg)
}

func (m *tuiModel) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dialogs[0]
	key := msg.String()
	switch d.kind {
	case dialogConfirm:
		switch key {
		case "y", "Y", "enter":
			m.answer(true)
		case "n", "N", "esc", "q":
			m.answer(false)
		}
	default:
		switch key {
		case "enter", "esc", " ", "space", "q":
			m.answer(true)
		}
	}
	return m, nil
}

// answer replies to the front dialog and drops it.
func (m *tuiModel) answer(ok bool) {
	d := m.dialogs[0]
	m.dialogs = m.dialogs[1:]
	d.reply <- ok
}

func (m *tuiModel) quit() (tea.Model, tea.Cmd) {
	for len(m.dialogs) > 0 {
		m.answer(false)
	}
	return m, tea.Quit
}

func (m *tuiModel) selected() (view.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list.Items) {
		return view.Item{}, false
	}
	return m.list.Items[m.cursor], true
}

func (m *tuiModel) clampCursor() {
	if m.cursor >= len(m.list.Items) {
		m.cursor = len(m.list.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b, m.subtitle)

	switch m.mode {
	case modeHelp:
		writeHelp(&b)
	case modeForm:
		writeForm(&b, &m.form)
	default:
		if m.loaded {
			writeList(&b, m.list, m.cursor)
		}
		writeFooter(&b, m)
	}

	if len(m.dialogs) > 0 {
		writeDialog(&b, m.dialogs[0])
	}
	return b.String()
}

func writeTitle(b *strings.Builder, subtitle string) {
	b.WriteString(titleStyle.Render("Tasks"))
	if subtitle != "" {
		b.WriteString("  " + subtitleStyle.Render(subtitle))
	}
	b.WriteString("\n\n")
}

func writeList(b *strings.Builder, list view.Model, cursor int) {
	if list.Empty() {
		b.WriteString("  " + descStyle.Render(list.Placeholder) + "\n\n")
		return
	}
	for i, item := range list.Items {
		pointer := "  "
		if i == cursor {
			pointer = cursorStyle.Render("> ")
		}
		mark := "[ ]"
		title := item.Title
		if item.Completed {
			mark = "[x]"
			title = doneStyle.Render(title)
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", pointer, mark, title))
		if item.HasDescription() {
			b.WriteString("      " + descStyle.Render(item.Description) + "\n")
		}
	}
	b.WriteString("\n")
}

func writeFooter(b *strings.Builder, m *tuiModel) {
	parts := []string{"n new"}
	if item, ok := m.selected(); ok {
		parts = append(parts,
			"space "+item.Toggle.Label,
			"d "+item.Delete.Label,
		)
	}
	parts = append(parts, "r refresh", "? help", "q quit")
	b.WriteString(footerStyle.Render(strings.Join(parts, " • ")) + "\n")
}

func writeForm(b *strings.Builder, f *form) {
	b.WriteString(labelStyle.Render("New task") + "\n\n")
	fields := []struct {
		label string
		input textinput.Model
	}{
		{"Title:       ", f.title},
		{"Description: ", f.description},
	}
	for i, field := range fields {
		label := field.label
		if i == f.focus {
			label = focusStyle.Render(label)
		}
		b.WriteString("  " + label + field.input.View() + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("enter save • tab switch field • esc cancel") + "\n")
}

func writeDialog(b *strings.Builder, d dialog) {
	if d.kind == dialogConfirm {
		b.WriteString(dialogStyle.Render(d.text+"\n\n"+footerStyle.Render("y confirm • n cancel")) + "\n")
		return
	}
	b.WriteString(noticeStyle.Render(d.text+"\n\n"+footerStyle.Render("enter dismiss")) + "\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j    Move selection\n")
	b.WriteString("  space, enter    Complete or reopen the selected task\n")
	b.WriteString("  d               Delete the selected task\n")
	b.WriteString("  n               New task\n")
	b.WriteString("  r, F5           Refresh\n")
	b.WriteString("  ?, h            Toggle this help screen\n")
	b.WriteString("  q, ctrl+c       Quit\n\n")
	b.WriteString(footerStyle.Render("Press any key to go back") + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
