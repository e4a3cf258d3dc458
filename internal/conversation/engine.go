// Package conversation implements the screening dialogue engine: a state
// machine driving the phases of a candidate conversation, the structured
// extraction of profile data from model replies, and the one-shot technical
// question synthesis.
package conversation

import (
	"context"
	"strings"

	"github.com/talentscout/talentbot/internal/ai"
	"github.com/talentscout/talentbot/internal/logger"
	"github.com/talentscout/talentbot/internal/text"

	"go.uber.org/zap"
)

const (
	chatTemperature float32 = 0.7
	chatMaxTokens   int32   = 1024

	// The fallback handler sees only the tail of the transcript to bound
	// prompt size on off-topic exchanges.
	fallbackContextEntries = 3

	defaultCompany = "TalentScout"
	defaultContact = "careers@talentscout.com"
)

// DefaultExitKeywords end the conversation when a message equals or starts
// with one of them.
var DefaultExitKeywords = []string{
	"bye", "goodbye", "exit", "quit", "end", "stop",
	"thanks bye", "thank you bye", "see you", "later",
	"done", "finish", "end conversation", "close",
	"no more", "that's all", "i'm done", "im done",
}

// Options tune a new engine. Zero values fall back to sane defaults.
type Options struct {
	// ExitKeywords overrides DefaultExitKeywords.
	ExitKeywords []string
	// Company and Contact are substituted into the prompt templates.
	Company string
	Contact string
	Logger  *zap.Logger
}

// Engine owns one candidate conversation. It is not safe for concurrent
// use: turns are strictly sequential, and each conversation gets its own
// instance. All model failures are absorbed by the ai.Completer, so no
// engine method ever fails.
type Engine struct {
	llm          ai.Completer
	logger       *zap.Logger
	company      string
	contact      string
	exitKeywords []string

	phase              Phase
	profile            *Profile
	transcript         []ai.Message
	questionsGenerated bool
	rawTechQuestions   string
	mood               ai.Sentiment
}

// New creates an engine in the Greeting phase with an empty profile.
func New(llm ai.Completer, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.ExitKeywords) == 0 {
		opts.ExitKeywords = DefaultExitKeywords
	}
	if strings.TrimSpace(opts.Company) == "" {
		opts.Company = defaultCompany
	}
	if strings.TrimSpace(opts.Contact) == "" {
		opts.Contact = defaultContact
	}

	normalized := make([]string, 0, len(opts.ExitKeywords))
	for _, keyword := range opts.ExitKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			normalized = append(normalized, keyword)
		}
	}

	return &Engine{
		llm:          llm,
		logger:       opts.Logger,
		company:      opts.Company,
		contact:      opts.Contact,
		exitKeywords: normalized,
		phase:        PhaseGreeting,
		profile:      NewProfile(),
		mood:         ai.NeutralSentiment(),
	}
}

// GenerateGreeting produces the opening message, records it and advances
// Greeting to GatheringInfo. Caller contract: invoke exactly once per
// conversation, before the first ProcessMessage; the engine does not guard
// against repeat calls.
func (e *Engine) GenerateGreeting(ctx context.Context) string {
	response := e.llm.Complete(ctx,
		[]ai.Message{{Role: ai.RoleUser, Content: e.greetingPrompt()}},
		e.systemPrompt(), chatTemperature, chatMaxTokens,
	)

	e.phase = PhaseGatheringInfo
	e.transcript = append(e.transcript, ai.Message{Role: ai.RoleAssistant, Content: response})

	return response
}

// ProcessMessage runs one full turn: sanitize, exit check, sentiment, phase
// dispatch, transcript append. It never fails; model outages surface as the
// facade's fallback text with phase and profile untouched.
//
// Caller contract: do not call after IsEnded reports true. A post-end
// message is routed through the fallback handler rather than rejected.
func (e *Engine) ProcessMessage(ctx context.Context, userText string) (string, ai.Sentiment) {
	userText = text.Sanitize(userText)
	e.transcript = append(e.transcript, ai.Message{Role: ai.RoleUser, Content: userText})

	if text.DetectExitIntent(userText, e.exitKeywords) {
		e.logger.Info("exit intent detected", zap.String(logger.FieldPhase, e.phase.String()))
		// Short-circuit: no sentiment call, the cached mood is returned.
		return e.handleExit(ctx), e.mood
	}

	mood := e.llm.AnalyzeSentiment(ctx, userText)
	e.mood = mood

	var response string
	switch e.phase {
	case PhaseGatheringInfo:
		response = e.handleInfoGathering(ctx)
	case PhaseTechQuestions, PhaseAnsweringQuestions:
		response = e.handleTechInteraction(ctx)
	case PhaseClosing:
		response = e.handleClosing(ctx)
	default:
		response = e.handleFallback(ctx, userText)
	}

	e.transcript = append(e.transcript, ai.Message{Role: ai.RoleAssistant, Content: response})

	return response, mood
}

// handleInfoGathering extracts profile fields from the model reply, merges
// them first-write-wins, and on completion synthesizes the technical
// questions within the same turn.
func (e *Engine) handleInfoGathering(ctx context.Context) string {
	system := e.systemPrompt() + "\n\n" + e.infoGatheringPrompt()
	response := e.llm.Complete(ctx, e.transcript, system, chatTemperature, chatMaxTokens)

	allCollected := false
	if payload := text.ExtractStructuredBlock(response); payload != nil {
		allCollected = e.mergeExtraction(payload)
	}

	if allCollected || e.profile.IsComplete() {
		e.phase = PhaseTechQuestions
	}

	clean := text.StripStructuredBlock(response)

	if e.phase == PhaseTechQuestions && !e.questionsGenerated {
		e.rawTechQuestions = e.generateTechQuestions(ctx)
		e.questionsGenerated = true
		e.phase = PhaseAnsweringQuestions

		clean = strings.TrimRight(clean, " \n") + "\n\n" + e.rawTechQuestions

		e.logger.Info("technical questions generated",
			zap.Int("profile_completion", e.profile.CompletionPercentage()),
		)
	}

	return clean
}

func (e *Engine) generateTechQuestions(ctx context.Context) string {
	return e.llm.GenerateTechnicalQuestions(ctx, ai.QuestionRequest{
		Name:       e.profile.GetOr(FieldFullName, "Candidate"),
		Experience: e.profile.GetOr(FieldYearsOfExperience, "Unknown"),
		Positions:  e.profile.GetOr(FieldDesiredPositions, "Software Engineer"),
		TechStack:  e.profile.GetOr(FieldTechStack, "General Programming"),
	})
}

// handleTechInteraction forwards the full transcript so the model knows
// which questions were asked. No state change here: transitions out of the
// answering phase happen only via exit or an explicit close.
func (e *Engine) handleTechInteraction(ctx context.Context) string {
	return e.llm.Complete(ctx, e.transcript, e.systemPrompt(), chatTemperature, chatMaxTokens)
}

func (e *Engine) handleClosing(ctx context.Context) string {
	response := e.llm.Complete(ctx,
		[]ai.Message{{Role: ai.RoleUser, Content: e.closingPrompt()}},
		e.systemPrompt(), chatTemperature, chatMaxTokens,
	)
	e.phase = PhaseEnded
	return response
}

func (e *Engine) handleExit(ctx context.Context) string {
	response := e.llm.Complete(ctx,
		[]ai.Message{{Role: ai.RoleUser, Content: e.exitPrompt()}},
		e.systemPrompt(), chatTemperature, chatMaxTokens,
	)
	e.phase = PhaseEnded
	return response
}

// handleFallback redirects off-topic input using only the transcript tail.
func (e *Engine) handleFallback(ctx context.Context, userText string) string {
	tail := e.transcript
	if len(tail) > fallbackContextEntries {
		tail = tail[len(tail)-fallbackContextEntries:]
	}

	system := e.systemPrompt() + "\n\n" + e.fallbackPrompt(userText)
	return e.llm.Complete(ctx, tail, system, chatTemperature, chatMaxTokens)
}

// Close ends the conversation gracefully from any active phase, producing
// the farewell and transitioning to PhaseEnded.
func (e *Engine) Close(ctx context.Context) string {
	response := e.handleClosing(ctx)
	e.transcript = append(e.transcript, ai.Message{Role: ai.RoleAssistant, Content: response})
	return response
}

// Phase returns the current conversation phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Profile returns the candidate record. Treated as read-only by callers;
// only the info-gathering handler mutates it.
func (e *Engine) Profile() *Profile {
	return e.profile
}

// Transcript returns a copy of the full message history.
func (e *Engine) Transcript() []ai.Message {
	out := make([]ai.Message, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// Mood returns the most recent sentiment tag.
func (e *Engine) Mood() ai.Sentiment {
	return e.mood
}

// IsEnded reports whether the conversation reached the terminal phase.
func (e *Engine) IsEnded() bool {
	return e.phase == PhaseEnded
}

// RawTechnicalQuestions returns the generated question block for external
// parsing and display. Empty until questions have been generated.
func (e *Engine) RawTechnicalQuestions() string {
	return e.rawTechQuestions
}

// Reset discards all conversation state, returning the engine to a fresh
// Greeting phase with an empty profile.
func (e *Engine) Reset() {
	e.phase = PhaseGreeting
	e.profile = NewProfile()
	e.transcript = nil
	e.questionsGenerated = false
	e.rawTechQuestions = ""
	e.mood = ai.NeutralSentiment()
}
