package guidance

import "github.com/abhisek/nextstep/internal/llm"

// GuidanceSchema defines the JSON schema for career guidance.
var GuidanceSchema = &llm.Schema{
	Name:        "career-guidance",
	Description: "A structured career roadmap for a programmer based on assessment results",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-4 sentence assessment of where the candidate stands",
			},
			"technologies": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Languages and technologies to master, highest priority first",
			},
			"learning_strategy": map[string]any{
				"type":        "string",
				"description": "How to study given the personality type, as daily, weekly and monthly habits",
			},
			"career_paths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Suitable roles from entry level to advanced",
			},
			"mistakes": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Common mistakes at this level and how to avoid them",
			},
			"milestones": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Checkpoints after 1 month, 3 months, 6 months and 1 year",
			},
			"roadmap_url": map[string]any{
				"type":        "string",
				"description": "The single most relevant roadmap.sh link",
			},
		},
		"required":             []any{"summary", "technologies", "learning_strategy", "career_paths", "mistakes", "milestones", "roadmap_url"},
		"additionalProperties": false,
	},
}
