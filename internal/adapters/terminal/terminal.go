package terminal

// Package terminal implements the navigation and notice ports for a terminal
// session. Navigation here means tracking which top-level view the user is on
// and printing where a forced redirect lands them.

import (
	"fmt"
	"io"
	"sync"

	"github.com/syntheaweb/synthea-client/internal/ports"
)

var (
	_ ports.Navigator = (*Navigator)(nil)
	_ ports.Notifier  = (*Notifier)(nil)
)

// Navigator tracks the current view. Safe for concurrent use; the failure
// interceptor navigates from request goroutines.
type Navigator struct {
	mu      sync.Mutex
	current ports.View
	out     io.Writer
}

// NewNavigator creates a navigator starting on the given view.
func NewNavigator(out io.Writer, start ports.View) *Navigator {
	return &Navigator{current: start, out: out}
}

func (n *Navigator) Current() ports.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) NavigateTo(v ports.View) {
	n.mu.Lock()
	moved := n.current != v
	n.current = v
	n.mu.Unlock()

	if moved && n.out != nil {
		fmt.Fprintf(n.out, "-> %s\n", v)
	}
}

// Notifier prints one-time notices to the terminal.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier creates a notifier writing to out (typically stderr).
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, message)
}
