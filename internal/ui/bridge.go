package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/taskdeck/internal/view"
)

// Bridge implements the TaskClient's Renderer, Notifier and Confirmer by
// posting messages to a running program. Notify and Confirm block the
// calling command until the user answers the dialog or ctx ends.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewBridge returns a bridge that drops messages until attached.
func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) post(msg tea.Msg) bool {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send == nil {
		return false
	}
	send(msg)
	return true
}

// Render implements client.Renderer.
func (b *Bridge) Render(m view.Model) {
	b.post(renderMsg{model: m})
}

// Notify implements client.Notifier.
func (b *Bridge) Notify(ctx context.Context, msg string) {
	reply := make(chan bool, 1)
	if !b.post(dialogMsg{dialog{kind: dialogNotice, text: msg, reply: reply}}) {
		return
	}
	select {
	case <-reply:
	case <-ctx.Done():
	}
}

// Confirm implements client.Confirmer. It returns false if ctx ends first.
func (b *Bridge) Confirm(ctx context.Context, prompt string) bool {
	reply := make(chan bool, 1)
	if !b.post(dialogMsg{dialog{kind: dialogConfirm, text: prompt, reply: reply}}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}
