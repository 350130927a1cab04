package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/ui/theme"
)

// ProgressBar shows how many of a sub-test's questions are answered. When
// every question fits in Width it draws one cell per question, otherwise a
// proportional bar.
type ProgressBar struct {
	Label string
	Done  int
	Total int
	Width int
}

func NewProgressBar(label string, done, total, width int) ProgressBar {
	return ProgressBar{Label: label, Done: done, Total: total, Width: width}
}

// Fraction returns Done/Total clamped to [0,1].
func (p ProgressBar) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Done)/float64(p.Total), 0), 1)
}

func (p ProgressBar) View() string {
	var label string
	if p.Label != "" {
		label = theme.Body.Render(p.Label) + "  "
	}
	count := lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %d/%d", p.Done, p.Total))

	room := max(p.Width-lipgloss.Width(label)-lipgloss.Width(count), 4)
	return label + p.cells(room) + count
}

func (p ProgressBar) cells(room int) string {
	// One "■ " per question.
	if p.Total > 0 && p.Total*2-1 <= room {
		done := min(max(p.Done, 0), p.Total)
		return theme.ProgressFilled.Render(strings.TrimSuffix(strings.Repeat("■ ", done), " ")) +
			sepIf(done > 0 && done < p.Total) +
			theme.ProgressEmpty.Render(strings.TrimSuffix(strings.Repeat("□ ", p.Total-done), " "))
	}

	filled := int(float64(room) * p.Fraction())
	return theme.ProgressFilled.Render(strings.Repeat("█", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat("░", room-filled))
}

func sepIf(ok bool) string {
	if ok {
		return " "
	}
	return ""
}
