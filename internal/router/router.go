// Package router keeps the terminal test-taker's screen stack: home at the
// bottom, the active test or result screen on top.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nextstep/internal/screen"
)

// PushScreenMsg opens Screen on top of the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the active screen.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen for Screen, e.g. a finished
// test for its result.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// PopToRootMsg closes every screen above the bottom one.
type PopToRootMsg struct{}

// Router owns the screen stack. The stack is never empty.
type Router struct {
	stack []screen.Screen
}

func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

// Push opens s and returns its Init command.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop closes the active screen unless it is the root.
func (r *Router) Pop() tea.Cmd {
	return r.popTo(len(r.stack) - 1)
}

// PopToRoot closes everything above the root screen.
func (r *Router) PopToRoot() tea.Cmd {
	return r.popTo(1)
}

// popTo truncates the stack to depth n (n >= 1). The revealed screen is
// resumed when it implements screen.Resumer.
func (r *Router) popTo(n int) tea.Cmd {
	if n < 1 || n >= len(r.stack) {
		return nil
	}
	clear(r.stack[n:])
	r.stack = r.stack[:n]
	if res, ok := r.Active().(screen.Resumer); ok {
		return res.Resume()
	}
	return nil
}

// Replace swaps the active screen for s and returns its Init command.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

func (r *Router) Active() screen.Screen {
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int {
	return len(r.stack)
}

// Trail returns the titles of the stacked screens, root first. Screens
// with an empty title are skipped.
func (r *Router) Trail() []string {
	out := make([]string, 0, len(r.stack))
	for _, s := range r.stack {
		if t := s.Title(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Update applies navigation messages and forwards everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case PopToRootMsg:
		return r.PopToRoot()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	}

	next, cmd := r.Active().Update(msg)
	r.stack[len(r.stack)-1] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	return r.Active().View(width, height)
}
