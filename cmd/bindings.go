package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nibzard/taskdeck/internal/view"
)

// textRenderer prints each view-model it receives. The first write error is
// kept for the command to return.
type textRenderer struct {
	w   io.Writer
	err error
}

func (r *textRenderer) Render(m view.Model) {
	if err := view.WriteText(r.w, m); err != nil && r.err == nil {
		r.err = err
	}
}

// textNotifier prints user-facing messages on one line each.
type textNotifier struct {
	w io.Writer
}

func (n *textNotifier) Notify(ctx context.Context, msg string) {
	fmt.Fprintln(n.w, msg)
}

// promptConfirmer asks on out and reads one answer line from in. Anything but
// y or yes declines, including EOF.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func (c *promptConfirmer) Confirm(ctx context.Context, prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)

	answer := make(chan string, 1)
	go func() {
		line, _ := c.in.ReadString('\n')
		answer <- line
	}()
	select {
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return false
	}
}
