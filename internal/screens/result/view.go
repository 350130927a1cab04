package result

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/ui/components"
	"github.com/abhisek/nextstep/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var body string
	switch {
	case s.loading:
		if s.subTest == "" {
			return components.Center(theme.Hint.Render("Preparing your career guidance..."), width, height)
		}
		return components.Center(theme.Hint.Render("Loading..."), width, height)
	case len(s.missing) > 0:
		body = renderMissing(s.missing, cw)
	case s.errMsg != "":
		body = components.WarningCard(theme.Body.Render(s.errMsg), cw)
	case s.sub != nil:
		body = components.Card(theme.Heading.Render(s.sub.SubTest.Label())+"\n\n"+
			RenderSummary(s.sub.SubTest, s.sub.Summary), cw)
	case s.final != nil:
		body = renderFinal(s.final, cw)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, body)
}

func renderMissing(missing []assessment.SubTest, cw int) string {
	var b strings.Builder
	b.WriteString(theme.Warn.Render("Almost there!") + "\n\n")
	b.WriteString(theme.Body.Render("Complete these tests to see your final result:") + "\n\n")
	for _, st := range missing {
		b.WriteString(theme.Body.Render("  • "+st.Label()) + "\n")
	}
	return components.WarningCard(b.String(), cw)
}

func renderFinal(r *assessment.FinalResult, cw int) string {
	var b strings.Builder
	b.WriteString(row("Average rating", fmt.Sprintf("%.0f", r.AverageScore)) + "\n")
	b.WriteString(row("Coding", r.TechnicalTest) + "\n")
	b.WriteString(row("Level", r.TechnicalLevel) + "\n")
	b.WriteString(row("Personality", r.NonTechnicalTest) + "\n")

	guidance := theme.Heading.Render("Career guidance") + "\n\n" +
		lipgloss.NewStyle().Width(cw-6).Foreground(theme.Text).Render(strings.TrimSpace(r.Narrative))

	return components.Card(b.String(), cw) + "\n" + components.Card(guidance, cw) + "\n" +
		theme.Hint.Render("generated "+r.GeneratedAt.Local().Format("Jan 2 15:04"))
}

// RenderSummary formats a sub-test summary as labelled rows.
func RenderSummary(st assessment.SubTest, sum assessment.Summary) string {
	var rows []string
	if sum.Score != nil {
		rows = append(rows, row("Rating", fmt.Sprintf("%.0f", *sum.Score)))
	}
	if sum.Label != "" {
		rows = append(rows, row("Type", sum.Label))
	}
	if st == assessment.SubTestCoding || sum.Total > 0 {
		rows = append(rows, row("Solved", fmt.Sprintf("%d/%d", sum.Solved, sum.Total)))
	}
	if sum.Level != "" {
		rows = append(rows, row("Level", sum.Level))
	}
	rows = append(rows, row("Answered", fmt.Sprint(sum.Answered)))

	if len(sum.Metrics) > 0 && st != assessment.SubTestCoding {
		keys := make([]string, 0, len(sum.Metrics))
		for k := range sum.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows = append(rows, "")
		for _, k := range keys {
			rows = append(rows, row("  "+k, fmt.Sprintf("%.0f", sum.Metrics[k])))
		}
	}
	return strings.Join(rows, "\n")
}

func row(label, value string) string {
	return theme.Hint.Render(fmt.Sprintf("%-16s", label)) + theme.Body.Render(value)
}
