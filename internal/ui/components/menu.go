package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/ui/theme"
)

// MenuItem is one numbered menu entry.
type MenuItem struct {
	Label    string
	Status   string // shown dimmed after the label
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical, numbered menu. The cursor wraps and never rests on
// a disabled item; number keys activate an item directly.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.Selected = m.step(1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

func (m Menu) Init() tea.Cmd {
	return nil
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "up", "k":
		if i := m.step(-1); i >= 0 {
			m.Selected = i
		}
	case "down", "j", "tab":
		if i := m.step(1); i >= 0 {
			m.Selected = i
		}
	case "enter":
		return m, m.activate(m.Selected)
	default:
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(m.Items) && !m.Items[n-1].Disabled {
			m.Selected = n - 1
			return m, m.activate(n - 1)
		}
	}
	return m, nil
}

// step returns the next enabled index in direction dir, wrapping around,
// or -1 when every item is disabled.
func (m Menu) step(dir int) int {
	n := len(m.Items)
	for k := 1; k <= n; k++ {
		i := ((m.Selected+dir*k)%n + n) % n
		if !m.Items[i].Disabled {
			return i
		}
	}
	return -1
}

func (m Menu) activate(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	item := m.Items[i]
	if item.Disabled || item.Action == nil {
		return nil
	}
	return item.Action()
}

func (m Menu) View() string {
	labelWidth := 0
	for _, item := range m.Items {
		labelWidth = max(labelWidth, lipgloss.Width(item.Label))
	}
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	lines := make([]string, len(m.Items))
	for i, item := range m.Items {
		num := strconv.Itoa(i + 1)
		label := item.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(item.Label))

		var line string
		switch {
		case i == m.Selected:
			line = theme.Selected.Render(" ▸ " + num + "  " + label)
		case item.Disabled:
			line = dim.Render("   " + num + "  " + label)
		default:
			line = dim.Render("   "+num+"  ") + theme.Unselected.Render(label)
		}
		if item.Status != "" {
			line += "   " + theme.Hint.Render(item.Status)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
