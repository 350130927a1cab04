package guidance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/llm"
)

// LLMNarrator asks a language model for structured career guidance and
// renders it as text.
type LLMNarrator struct {
	provider llm.Provider
	cfg      Config
}

// NewLLMNarrator creates a narrator backed by provider.
func NewLLMNarrator(provider llm.Provider, cfg Config) *LLMNarrator {
	return &LLMNarrator{provider: provider, cfg: cfg}
}

type guidanceOutput struct {
	Summary          string   `json:"summary"`
	Technologies     []string `json:"technologies"`
	LearningStrategy string   `json:"learning_strategy"`
	CareerPaths      []string `json:"career_paths"`
	Mistakes         []string `json:"mistakes"`
	Milestones       []string `json:"milestones"`
	RoadmapURL       string   `json:"roadmap_url"`
}

func (n *LLMNarrator) Narrate(ctx context.Context, p Profile) (string, error) {
	ctx = llm.WithPurpose(ctx, "career-guidance")

	req := llm.Request{
		System: guidanceSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGuidanceUserMessage(p)},
		},
		Schema:      GuidanceSchema,
		MaxTokens:   n.cfg.MaxTokens,
		Temperature: n.cfg.Temperature,
	}

	resp, err := n.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("career guidance generation: %w", err)
	}

	var out guidanceOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse career guidance response: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", fmt.Errorf("career guidance response has empty summary")
	}
	return out.render(), nil
}

func (o guidanceOutput) render() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(o.Summary))
	b.WriteString("\n")
	section(&b, "Technologies to master", o.Technologies)
	if s := strings.TrimSpace(o.LearningStrategy); s != "" {
		b.WriteString("\nLearning strategy\n")
		b.WriteString(s)
		b.WriteString("\n")
	}
	section(&b, "Career paths", o.CareerPaths)
	section(&b, "Mistakes to avoid", o.Mistakes)
	section(&b, "Milestones", o.Milestones)
	if o.RoadmapURL != "" {
		b.WriteString("\nRoadmap: ")
		b.WriteString(o.RoadmapURL)
		b.WriteString("\n")
	}
	return b.String()
}

func section(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(it))
		b.WriteString("\n")
	}
}

// TemplateNarrator writes deterministic guidance without a language model.
type TemplateNarrator struct{}

func (TemplateNarrator) Narrate(_ context.Context, p Profile) (string, error) {
	out := guidanceOutput{
		Technologies: []string{"Python or Go for everyday problem solving", "SQL", "Git and GitHub"},
		Milestones: []string{
			"1 month: solve easy problems daily without looking up syntax",
			"3 months: build and deploy a small CRUD service",
			"6 months: contribute a fix to an open-source project",
			"1 year: design and ship a project end to end",
		},
		Mistakes: []string{
			"Skipping fundamentals to chase frameworks",
			"Copying solutions without re-deriving them",
		},
	}

	switch {
	case p.AverageScore < 1000:
		out.Summary = fmt.Sprintf("Your rating of %.0f is well below the 1200 competence line. Rebuild your foundations before anything else.", p.AverageScore)
		out.CareerPaths = []string{"Junior QA engineer", "Technical support engineer"}
		out.RoadmapURL = "https://roadmap.sh/computer-science"
	case p.AverageScore < 1200:
		out.Summary = fmt.Sprintf("Your rating of %.0f is close to the 1200 competence line. Close the gaps in your weakest topics first.", p.AverageScore)
		out.CareerPaths = []string{"Junior backend developer", "Junior frontend developer"}
		out.RoadmapURL = "https://roadmap.sh/data-structures"
	case p.AverageScore < 1400:
		out.Summary = fmt.Sprintf("Your rating of %.0f shows competent fundamentals. Deepen one stack and start building real systems.", p.AverageScore)
		out.CareerPaths = []string{"Backend developer", "Full stack developer"}
		out.RoadmapURL = "https://roadmap.sh/backend"
	default:
		out.Summary = fmt.Sprintf("Your rating of %.0f is strong. Focus on system design and ownership of larger projects.", p.AverageScore)
		out.CareerPaths = []string{"Backend developer", "Software architect"}
		out.RoadmapURL = "https://roadmap.sh/system-design"
	}
	out.Summary += fmt.Sprintf(" You solved %s coding problems as a %s programmer.", p.TechnicalTest, skillWord(p.SkillLevel))

	if strings.HasPrefix(strings.ToUpper(p.Personality), "I") {
		out.LearningStrategy = fmt.Sprintf("As an %s, favour focused solo practice: an hour of problems daily, one project feature weekly, and a written review of progress monthly.", p.Personality)
	} else {
		out.LearningStrategy = fmt.Sprintf("As an %s, learn with others: pair on problems daily, join a study group weekly, and present what you built monthly.", p.Personality)
	}
	return out.render(), nil
}

// Fallback tries primary and falls back to a TemplateNarrator when it fails.
type Fallback struct {
	Primary Narrator
	Log     *zap.Logger
}

func (f Fallback) Narrate(ctx context.Context, p Profile) (string, error) {
	if f.Primary != nil {
		text, err := f.Primary.Narrate(ctx, p)
		if err == nil {
			return text, nil
		}
		if f.Log != nil {
			f.Log.Warn("career guidance falling back to template", zap.Error(err))
		}
	}
	return TemplateNarrator{}.Narrate(ctx, p)
}
