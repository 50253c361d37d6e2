package ai

import (
	"strings"

	_ "embed"

	"github.com/spigell/cv-screener/internal/utils"
)

//go:embed prompts/resume.md
var resumePrompt string

//go:embed prompts/job.md
var jobPrompt string

//go:embed prompts/depth.md
var depthPrompt string

// BuildPrompt renders the fixed instructions for kind and the truncated source text.
func BuildPrompt(req Request) Prompt {
	text := utils.Truncate(strings.TrimSpace(req.Text), maxLength(req.Kind))

	switch req.Kind {
	case KindJob:
		return Prompt{System: jobPrompt, User: "Job description:\n\n" + text}
	case KindDepth:
		skills := strings.Join(req.Hints, ", ")
		if skills == "" {
			skills = "none listed"
		}
		return Prompt{
			System: strings.ReplaceAll(depthPrompt, "{{SKILLS}}", skills),
			User:   "Resume:\n\n" + text,
		}
	default:
		return Prompt{System: resumePrompt, User: "Resume:\n\n" + text}
	}
}

// Joined returns system and user parts as one message for backends without a
// dedicated system channel.
func (p Prompt) Joined() string {
	return strings.TrimSpace(p.System) + "\n\n" + strings.TrimSpace(p.User)
}
