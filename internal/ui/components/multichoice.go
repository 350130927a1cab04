package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/ui/theme"
)

// Choice is a single-answer selector. Options can be picked with the arrow
// keys and enter, or directly with their number key.
type Choice struct {
	Options  []string
	Selected int
	Chosen   int
}

// NewChoice creates a selector with nothing chosen.
func NewChoice(options []string) Choice {
	return Choice{Options: options, Chosen: -1}
}

// Update handles keyboard navigation and selection.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	if c.Chosen >= 0 {
		return c, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Selected > 0 {
			c.Selected--
		}
	case "down", "j":
		if c.Selected < len(c.Options)-1 {
			c.Selected++
		}
	case "enter":
		if len(c.Options) > 0 {
			c.Chosen = c.Selected
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(c.Options) {
				c.Selected = i
				c.Chosen = i
			}
		}
	}
	return c, nil
}

// Done reports whether an option has been chosen.
func (c Choice) Done() bool {
	return c.Chosen >= 0
}

// Value returns the chosen option text.
func (c Choice) Value() string {
	if c.Chosen < 0 || c.Chosen >= len(c.Options) {
		return ""
	}
	return c.Options[c.Chosen]
}

// View renders the option list.
func (c Choice) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Selected {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)
		switch {
		case i == c.Chosen:
			b.WriteString(theme.Selected.Render(line))
		case c.Chosen >= 0:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(line))
		case i == c.Selected:
			b.WriteString(theme.Selected.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// LikertLabels are the anchors of the seven-point agreement scale.
var LikertLabels = []string{
	"Strongly disagree",
	"Disagree",
	"Somewhat disagree",
	"Neutral",
	"Somewhat agree",
	"Agree",
	"Strongly agree",
}

// NewLikert creates a seven-point selector. Value returns "1".."7".
func NewLikert() Likert {
	return Likert{Choice: NewChoice(LikertLabels)}
}

// Likert is a Choice over the agreement scale that reports the position.
type Likert struct {
	Choice
}

// Update forwards to the embedded Choice.
func (l Likert) Update(msg tea.Msg) (Likert, tea.Cmd) {
	var cmd tea.Cmd
	l.Choice, cmd = l.Choice.Update(msg)
	return l, cmd
}

// Value returns the 1-based scale position of the chosen anchor.
func (l Likert) Value() string {
	if !l.Done() {
		return ""
	}
	return fmt.Sprint(l.Chosen + 1)
}
