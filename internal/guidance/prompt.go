package guidance

import (
	"fmt"
	"strings"
)

const guidanceSystemPrompt = `You are a blunt, practical career coach for software developers. You write clear, no-nonsense roadmaps grounded in the candidate's measured results.`

// roadmaps are the roadmap.sh tracks the model may recommend.
var roadmaps = []string{
	"frontend", "backend", "devops", "fullstack", "ai", "data-analyst",
	"ai-and-data-scientist", "android", "ios", "postgresql", "blockchain", "qa",
	"software-architect", "cyber-security", "game-developer", "mlops",
	"engineering-manager", "computer-science", "javascript", "nodejs",
	"typescript", "python", "sql", "system-design", "api-design", "java",
	"cpp", "go", "rust", "docker", "kubernetes", "linux", "data-structures",
	"git", "prompt-engineering",
}

func buildGuidanceUserMessage(p Profile) string {
	var b strings.Builder

	b.WriteString("I am focused on building a strong career in programming and want a clear roadmap to get there.\n\n")
	b.WriteString(fmt.Sprintf("My coding proficiency is rated at %.0f on a scale of 800 to 1600. 1200 is the minimum to be considered a competent developer; below it my foundations are weak and I need a structured plan to fix them fast.\n", p.AverageScore))
	b.WriteString(fmt.Sprintf("My personality type is '%s', which affects how I learn and solve problems.\n", p.Personality))
	b.WriteString(fmt.Sprintf("I solved %s coding problems and identify as a %s programmer.\n", p.TechnicalTest, skillWord(p.SkillLevel)))

	b.WriteString("\nAvailable roadmaps (https://roadmap.sh/<name>):\n")
	b.WriteString(strings.Join(roadmaps, ", "))

	b.WriteString(`

Instructions:
1. Rank the languages and technologies I should master by priority for my level.
2. Describe learning strategies that suit my personality type, broken into daily, weekly and monthly habits.
3. List career paths that match my strengths, from entry level to advanced.
4. Name the critical mistakes developers at my level make and how to avoid them.
5. Give milestones for 1 month, 3 months, 6 months and 1 year.
6. Pick the single most relevant roadmap from the list and return its full URL.`)

	return b.String()
}
