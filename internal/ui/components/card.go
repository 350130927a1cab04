package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/ui/theme"
)

// ContentWidth returns the inner width used by every card on a screen so
// stacked boxes line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 76 {
		w = 76
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded box of width cw.
func Card(content string, cw int) string {
	return theme.Card.Width(cw - 2).Render(content)
}

// WarningCard is Card with an amber border, used for errors and confirmations.
func WarningCard(content string, cw int) string {
	return theme.WarningCard.Width(cw - 2).Render(content)
}

// Center places content in the middle of a width x height area.
func Center(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
