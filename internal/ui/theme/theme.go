// Package theme holds the test-taker's colors and text styles.
package theme

import "charm.land/lipgloss/v2"

// Palette. Kept low-contrast for long reading; red and amber are reserved
// for the countdown and failures.
var (
	Primary   = lipgloss.Color("#7C83FD")
	Secondary = lipgloss.Color("#38BDF8")
	Accent    = lipgloss.Color("#FBBF24")
	Success   = lipgloss.Color("#34D399")
	Error     = lipgloss.Color("#F87171")
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	Border    = lipgloss.Color("#374151")
)

var (
	Title    = lipgloss.NewStyle().Foreground(Primary).Bold(true).Align(lipgloss.Center)
	Subtitle = lipgloss.NewStyle().Foreground(TextDim).Align(lipgloss.Center)
	Heading  = lipgloss.NewStyle().Foreground(Secondary).Bold(true)
	Body     = lipgloss.NewStyle().Foreground(Text)
	Hint     = lipgloss.NewStyle().Foreground(TextDim).Italic(true)
)

// Card frames a question or result; WarningCard frames confirmations and
// failures.
var (
	Card        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Border).Padding(1, 2)
	WarningCard = Card.BorderForeground(Accent)
)

var (
	Selected   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Unselected = lipgloss.NewStyle().Foreground(Text)
)

// Outcome styles: Good for solved or complete, Bad for failures and the
// last seconds of a countdown, Warn for pending states.
var (
	Good = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Bad  = lipgloss.NewStyle().Foreground(Error).Bold(true)
	Warn = lipgloss.NewStyle().Foreground(Accent).Bold(true)
)

// Progress glyphs are drawn in foreground colors so they survive
// terminals without background color support.
var (
	ProgressFilled = lipgloss.NewStyle().Foreground(Secondary)
	ProgressEmpty  = lipgloss.NewStyle().Foreground(Border)
)
