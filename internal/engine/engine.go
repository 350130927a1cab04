// Package engine assembles the assessment services from configuration.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/aggregate"
	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/auth"
	"github.com/abhisek/nextstep/internal/bank"
	"github.com/abhisek/nextstep/internal/config"
	"github.com/abhisek/nextstep/internal/guidance"
	"github.com/abhisek/nextstep/internal/llm"
	"github.com/abhisek/nextstep/internal/scoring/coding"
	"github.com/abhisek/nextstep/internal/scoring/gap"
	"github.com/abhisek/nextstep/internal/scoring/personality"
	"github.com/abhisek/nextstep/internal/sequencer"
	"github.com/abhisek/nextstep/internal/session"
	"github.com/abhisek/nextstep/internal/store"
)

// Engine holds the wired services. Close it to stop pending countdowns.
type Engine struct {
	Store        *store.Store
	Auth         *auth.TokenAuthorizer
	Orchestrator *session.Orchestrator
	Aggregator   *aggregate.Aggregator
	Provider     llm.Provider // nil when no LLM is configured
}

// Options tweaks what Build wires. The zero value is production.
type Options struct {
	Clock    clockwork.Clock
	Runner   coding.Runner
	Provider llm.Provider
	Observer session.Observer
}

// Build wires the orchestrator and aggregator over st.
func Build(ctx context.Context, cfg *config.Config, st *store.Store, log *zap.Logger, opts Options) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Runner == nil {
		opts.Runner = coding.NewPistonRunner(cfg.Piston.URL, cfg.Piston.Timeout)
	}

	kinds, err := Kinds(cfg, st, opts.Runner, log)
	if err != nil {
		return nil, err
	}

	authz := auth.New(st, opts.Clock)
	sessOpts := []session.Option{
		session.WithClock(opts.Clock),
		session.WithLogger(log.Named("session")),
		session.WithEvents(st.EventRepo()),
		session.WithRetryPolicy(session.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: cfg.Retry.InitialWait,
			MaxWait:     cfg.Retry.MaxWait,
			Multiplier:  cfg.Retry.Multiplier,
		}),
	}
	if opts.Observer != nil {
		sessOpts = append(sessOpts, session.WithObserver(opts.Observer))
	}

	provider := opts.Provider
	if provider == nil {
		provider, err = llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log.Named("llm"))
		switch {
		case errors.Is(err, llm.ErrDisabled):
			provider = nil
		case err != nil:
			return nil, fmt.Errorf("llm provider: %w", err)
		}
	}

	var narrator guidance.Narrator = guidance.TemplateNarrator{}
	if provider != nil {
		narrator = guidance.Fallback{
			Primary: guidance.NewLLMNarrator(provider, guidance.DefaultConfig()),
			Log:     log.Named("guidance"),
		}
	}

	return &Engine{
		Store:        st,
		Auth:         authz,
		Orchestrator: session.New(st, authz, kinds, sessOpts...),
		Aggregator: aggregate.New(st, narrator,
			aggregate.WithClock(opts.Clock),
			aggregate.WithLogger(log.Named("aggregate"))),
		Provider: provider,
	}, nil
}

// Close stops the orchestrator's countdowns. The store is left open.
func (e *Engine) Close() {
	e.Orchestrator.Close()
}

// Kinds builds the three sub-test kinds from their banks.
func Kinds(cfg *config.Config, st *store.Store, runner coding.Runner, log *zap.Logger) ([]session.Kind, error) {
	kinds := make([]session.Kind, 0, len(assessment.AllSubTests))
	for _, subTest := range assessment.AllSubTests {
		sc := cfg.SubTest(subTest)
		b, err := LoadBank(subTest, sc.Bank)
		if err != nil {
			return nil, err
		}

		kind := session.Kind{
			SubTest:       subTest,
			QuestionCount: sc.Questions,
			Timer:         assessment.TimerPolicy{Enabled: sc.Timer > 0, Budget: sc.Timer},
		}
		switch subTest {
		case assessment.SubTestGapAnalysis:
			svc := gap.NewService(b, st, gap.WithLogger(log.Named("gap")))
			kind.Scorer = svc
			kind.Sequencer = sequencer.NewAdaptive(svc, b)
		case assessment.SubTestPersonality:
			kind.Scorer = personality.NewService(b, st)
			kind.Sequencer = sequencer.NewFixed(b)
		case assessment.SubTestCoding:
			kind.Scorer = coding.NewService(b, st, runner, sc.Questions, log.Named("coding"))
			kind.Sequencer = sequencer.NewFixed(b)
			kind.EarlyEnd = true
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// LoadBank loads the configured bank for st, or the embedded default.
func LoadBank(st assessment.SubTest, path string) (*bank.Bank, error) {
	if path == "" {
		return bank.Default(st)
	}
	b, err := bank.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s bank: %w", st, err)
	}
	if b.SubTest != "" && b.SubTest != st {
		return nil, fmt.Errorf("%s holds a %s bank, want %s", path, b.SubTest, st)
	}
	return b, nil
}
