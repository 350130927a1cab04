// Package layout frames a screen between a header line and a key-hint
// footer.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/ui/theme"
)

// The coding problem card needs roughly this much room.
const (
	MinWidth  = 64
	MinHeight = 20
)

const brand = "nextstep"

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the candidate to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Text).
		Render(fmt.Sprintf(
			"This window is %d×%d.\nnextstep needs at least %d×%d.\n\nEnlarge the terminal to continue; your progress is saved.",
			width, height, MinWidth, MinHeight,
		))
}

// RenderHeader draws the brand and the screen trail on the left and right
// (typically the candidate's name) on the right, over a rule.
func RenderHeader(trail []string, right string, width int) string {
	left := " " + lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(brand)
	if len(trail) > 0 {
		crumbs := make([]string, len(trail))
		for i, t := range trail {
			style := lipgloss.NewStyle().Foreground(theme.TextDim)
			if i == len(trail)-1 {
				style = lipgloss.NewStyle().Foreground(theme.Text)
			}
			crumbs[i] = style.Render(t)
		}
		sep := lipgloss.NewStyle().Foreground(theme.Border).Render(" › ")
		left += sep + strings.Join(crumbs, sep)
	}
	right = lipgloss.NewStyle().Foreground(theme.TextDim).Render(right) + " "

	return spread(left, right, width) + "\n" + rule(width)
}

// RenderFooter draws the key hints under a rule.
func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = key.Render(h.Key) + " " + desc.Render(h.Description)
	}
	line := " " + strings.Join(parts, "  ·  ")
	if lipgloss.Width(line) > width {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return rule(width) + "\n" + line
}

// RenderFrame stacks header, content and footer, giving the content all
// remaining height.
func RenderFrame(header, content, footer string, width, height int) string {
	body := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if body < 0 {
		body = 0
	}
	content = lipgloss.NewStyle().Width(width).Height(body).MaxHeight(body).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// spread places left and right at opposite edges of width. When both do
// not fit, right is dropped.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return lipgloss.NewStyle().MaxWidth(width).Render(left)
	}
	return left + strings.Repeat(" ", gap) + right
}

func rule(width int) string {
	if width < 0 {
		width = 0
	}
	return lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", width))
}
