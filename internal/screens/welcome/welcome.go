package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/router"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	bannerAt     = 300 * time.Millisecond
	greetingAt   = 900 * time.Millisecond
	totalDur     = 1500 * time.Millisecond
)

const bannerArt = `
 ███╗   ██╗███████╗██╗  ██╗████████╗███████╗████████╗███████╗██████╗
 ████╗  ██║██╔════╝╚██╗██╔╝╚══██╔══╝██╔════╝╚══██╔══╝██╔════╝██╔══██╗
 ██╔██╗ ██║█████╗   ╚███╔╝    ██║   ███████╗   ██║   █████╗  ██████╔╝
 ██║╚██╗██║██╔══╝   ██╔██╗    ██║   ╚════██║   ██║   ██╔══╝  ██╔═══╝
 ██║ ╚████║███████╗██╔╝ ██╗   ██║   ███████║   ██║   ███████╗██║
 ╚═╝  ╚═══╝╚══════╝╚═╝  ╚═╝   ╚═╝   ╚══════╝   ╚═╝   ╚══════╝╚═╝`

const bannerCompact = "N E X T S T E P"

var subTestLines = []string{
	"Gap Analysis    adaptive multiple choice",
	"Coding          solve problems in your language",
	"Personality     how you like to work",
}

type tickMsg time.Time

// WelcomeScreen greets the candidate and hands over to the home screen on
// the first key press.
type WelcomeScreen struct {
	name         string
	homeFactory  func() screen.Screen
	elapsed      time.Duration
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen for the named candidate. homeFactory is
// called once, when the candidate moves on.
func New(name string, homeFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		name:        name,
		homeFactory: homeFactory,
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.elapsed >= totalDur {
			return w, nil
		}
		w.elapsed += tickInterval
		return w, tick()

	case tea.KeyPressMsg:
		return w, w.transition()
	}
	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	home := w.homeFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: home}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	if w.elapsed >= bannerAt {
		rows := int((w.elapsed-bannerAt)/tickInterval) + 1
		sections = append(sections, renderBanner(width, rows), "")
		sections = append(sections, theme.Subtitle.Render("find your next step in tech"))
	}

	if w.elapsed >= greetingAt {
		greeting := "Welcome!"
		if w.name != "" {
			greeting = "Welcome, " + w.name + "!"
		}
		sections = append(sections, "", lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(greeting), "")
		for _, l := range subTestLines {
			sections = append(sections, theme.Body.Render(l))
		}
	}

	if w.elapsed >= totalDur {
		sections = append(sections, "", theme.Hint.Render("press any key to continue"))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

// renderBanner draws the first rows lines of the art, shading from the
// primary to the secondary color. Narrow terminals get the spaced name.
func renderBanner(width, rows int) string {
	lines := strings.Split(strings.TrimPrefix(bannerArt, "\n"), "\n")
	if width < lipgloss.Width(bannerArt)+2 {
		return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(bannerCompact)
	}

	rows = min(max(rows, 0), len(lines))
	out := make([]string, len(lines))
	for i, l := range lines {
		if i >= rows {
			out[i] = strings.Repeat(" ", lipgloss.Width(l))
			continue
		}
		color := theme.Primary
		if i >= len(lines)/2 {
			color = theme.Secondary
		}
		out[i] = lipgloss.NewStyle().Foreground(color).Bold(true).Render(l)
	}
	return strings.Join(out, "\n")
}
