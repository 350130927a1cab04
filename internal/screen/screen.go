package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/session"
	"github.com/abhisek/nextstep/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is implemented by screens that refresh when they become active
// again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// Sessions is the slice of the orchestrator the screens drive.
// *session.Orchestrator satisfies it.
type Sessions interface {
	Start(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error)
	Restart(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error)
	Current(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error)
	NextQuestion(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error)
	Submit(ctx context.Context, token string, st assessment.SubTest, ans session.Answer) (*session.SubmitResult, error)
	Resume(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error)
	End(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error)
	CanEnd(st assessment.SubTest) bool
}

// Results is the slice of the aggregator the screens read.
// *aggregate.Aggregator satisfies it.
type Results interface {
	SubTestResult(ctx context.Context, candidateID string, st assessment.SubTest) (*assessment.SubTestResult, error)
	Get(ctx context.Context, candidateID string) (*assessment.FinalResult, error)
	Generate(ctx context.Context, candidateID string) (*assessment.FinalResult, error)
}

// Deps is what every screen needs to talk to the assessment.
type Deps struct {
	Token       string
	CandidateID string
	Candidate   string // display name
	Sessions    Sessions
	Results     Results
}

// NotificationMsg carries an orchestrator notification into the program.
type NotificationMsg struct {
	session.Notification
}
