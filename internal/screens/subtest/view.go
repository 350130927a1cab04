package subtest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/ui/components"
	"github.com/abhisek/nextstep/internal/ui/theme"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	switch {
	case s.confirmQuit:
		return components.Center(components.WarningCard(
			theme.Warn.Render("Leave this test?")+"\n\n"+
				theme.Body.Render("Your progress is saved. A running timer keeps counting.")+"\n\n"+
				theme.Hint.Render("Y to leave, N to stay"), cw), width, height)
	case s.confirmEnd:
		return components.Center(components.WarningCard(
			theme.Warn.Render("End the test now?")+"\n\n"+
				theme.Body.Render("Every unanswered question is recorded as blank.")+"\n\n"+
				theme.Hint.Render("Y to end, N to continue"), cw), width, height)
	}

	switch s.phase {
	case phaseLoading, phaseDone:
		return components.Center(theme.Hint.Render("Loading..."), width, height)
	case phaseFailed:
		return components.Center(components.WarningCard(
			theme.Bad.Render("Something went wrong")+"\n\n"+
				theme.Body.Render(s.errMsg)+"\n\n"+
				theme.Hint.Render("R to retry, Esc to leave"), cw), width, height)
	}

	return s.renderQuestion(width, height, cw)
}

func (s *Screen) renderQuestion(width, height, cw int) string {
	sess := s.sess
	if sess == nil || sess.Current == nil {
		return ""
	}
	q := sess.Current

	var b strings.Builder
	bar := components.NewProgressBar(fmt.Sprintf("Question %d", sess.AnsweredCount+1), sess.AnsweredCount, sess.QuestionCount, cw-12)
	b.WriteString(bar.View())
	if s.remaining > 0 {
		b.WriteString("  " + renderCountdown(s.remaining))
	}
	b.WriteString("\n\n")

	if q.Topic != "" && s.subTest == assessment.SubTestGapAnalysis {
		b.WriteString(theme.Heading.Render(q.Topic))
		if q.Difficulty != "" {
			b.WriteString(theme.Hint.Render("  " + q.Difficulty))
		}
		b.WriteString("\n")
	}

	switch s.subTest {
	case assessment.SubTestCoding:
		b.WriteString(renderProblem(q, cw))
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Render("Solution file:") + "\n")
		b.WriteString(s.path.View())
	case assessment.SubTestPersonality:
		b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(q.Prompt))
		b.WriteString("\n\n")
		b.WriteString(s.likert.View())
	default:
		b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(q.Prompt))
		b.WriteString("\n\n")
		b.WriteString(s.choice.View())
	}

	if s.phase == phaseSubmitting {
		b.WriteString("\n" + theme.Hint.Render("Submitting..."))
	}
	if s.notice != "" {
		b.WriteString("\n" + theme.Warn.Render(s.notice))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		lipgloss.NewStyle().Width(cw).Render(b.String()))
}

// renderCountdown shows the seconds left, turning red in the last three.
func renderCountdown(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	label := fmt.Sprintf("⏱ %ds", secs)
	if secs <= 3 {
		return theme.Bad.Render(label)
	}
	return theme.Warn.Render(label)
}

func renderProblem(q *assessment.Question, cw int) string {
	p := q.Problem
	if p == nil {
		return lipgloss.NewStyle().Width(cw).Render(q.Prompt)
	}
	var b strings.Builder
	b.WriteString(theme.Heading.Render(p.Title) + "\n\n")
	if q.Prompt != "" {
		b.WriteString(lipgloss.NewStyle().Width(cw-4).Foreground(theme.Text).Render(q.Prompt) + "\n\n")
	}
	b.WriteString(theme.Hint.Render("Example input") + "\n")
	b.WriteString(theme.Body.Render(p.InputExample) + "\n")
	if p.Constraints != "" {
		b.WriteString("\n" + theme.Hint.Render("Constraints") + "\n" + theme.Body.Render(p.Constraints) + "\n")
	}
	if p.MinLines > 0 || p.MaxLines > 0 {
		b.WriteString("\n" + theme.Hint.Render(fmt.Sprintf("Expected length: %d to %d lines", p.MinLines, p.MaxLines)))
	}
	return components.Card(b.String(), cw)
}
