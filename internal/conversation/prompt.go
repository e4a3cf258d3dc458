package conversation

import (
	"fmt"
	"strings"

	_ "embed"
)

//go:embed prompts/system.md
var systemTemplate string

//go:embed prompts/greeting.md
var greetingTemplate string

//go:embed prompts/info_gathering.md
var infoGatheringTemplate string

//go:embed prompts/fallback.md
var fallbackTemplate string

//go:embed prompts/closing.md
var closingTemplate string

//go:embed prompts/exit.md
var exitTemplate string

const notCollected = "Not yet collected"

// systemPrompt injects the current phase context and profile summary into
// the base system template. Rebuilt on every model call so the model always
// sees fresh state.
func (e *Engine) systemPrompt() string {
	prompt := strings.ReplaceAll(systemTemplate, "{{COMPANY}}", e.company)
	prompt = strings.ReplaceAll(prompt, "{{STATE_CONTEXT}}", e.stateContext())
	return strings.ReplaceAll(prompt, "{{CANDIDATE_CONTEXT}}", e.profile.Summary())
}

func (e *Engine) stateContext() string {
	switch e.phase {
	case PhaseGreeting:
		return "You are greeting the candidate for the first time. Welcome them and ask for their name."
	case PhaseGatheringInfo:
		return fmt.Sprintf(
			"You are collecting candidate information. Missing fields: %s. Collected: %s",
			joinFields(e.profile.Missing()), collectedContext(e.profile),
		)
	case PhaseTechQuestions:
		return "You have collected all candidate info and are now presenting technical screening questions based on their tech stack."
	case PhaseAnsweringQuestions:
		return "The candidate is answering technical questions. Evaluate their responses and guide them through the remaining questions."
	case PhaseClosing:
		return "The screening is complete. Thank the candidate and inform them about next steps."
	case PhaseEnded:
		return "The conversation has ended."
	default:
		return ""
	}
}

func (e *Engine) greetingPrompt() string {
	return strings.ReplaceAll(greetingTemplate, "{{COMPANY}}", e.company)
}

// infoGatheringPrompt renders the per-field collection status plus the
// extraction instruction appended to the system prompt while gathering.
func (e *Engine) infoGatheringPrompt() string {
	prompt := infoGatheringTemplate
	for _, f := range Fields() {
		placeholder := "{{" + strings.ToUpper(string(f)) + "}}"
		prompt = strings.ReplaceAll(prompt, placeholder, e.profile.GetOr(f, notCollected))
	}
	return prompt
}

func (e *Engine) fallbackPrompt(message string) string {
	prompt := strings.ReplaceAll(fallbackTemplate, "{{MESSAGE}}", message)
	return strings.ReplaceAll(prompt, "{{PHASE}}", e.phase.String())
}

func (e *Engine) closingPrompt() string {
	prompt := strings.ReplaceAll(closingTemplate, "{{NAME}}", e.profile.GetOr(FieldFullName, "there"))
	prompt = strings.ReplaceAll(prompt, "{{POSITIONS}}", e.profile.GetOr(FieldDesiredPositions, "the position"))
	prompt = strings.ReplaceAll(prompt, "{{COMPANY}}", e.company)
	return strings.ReplaceAll(prompt, "{{CONTACT}}", e.contact)
}

func (e *Engine) exitPrompt() string {
	status := "Complete"
	if !e.profile.IsComplete() {
		status = fmt.Sprintf("Partial (%d%% complete)", e.profile.CompletionPercentage())
	}

	prompt := strings.ReplaceAll(exitTemplate, "{{NAME}}", e.profile.GetOr(FieldFullName, "there"))
	return strings.ReplaceAll(prompt, "{{INFO_STATUS}}", status)
}

func joinFields(fields []Field) string {
	if len(fields) == 0 {
		return "none"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func collectedContext(p *Profile) string {
	var parts []string
	for _, f := range Fields() {
		if value, ok := p.Get(f); ok {
			parts = append(parts, fmt.Sprintf("%s=%s", f, value))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
