package ai

import "context"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry replayed as context to the model.
type Message struct {
	Role    Role
	Content string
}

// SentimentLabel is a coarse emotional classification of a candidate message.
type SentimentLabel string

const (
	SentimentPositive  SentimentLabel = "positive"
	SentimentNeutral   SentimentLabel = "neutral"
	SentimentNegative  SentimentLabel = "negative"
	SentimentExcited   SentimentLabel = "excited"
	SentimentNervous   SentimentLabel = "nervous"
	SentimentConfident SentimentLabel = "confident"
)

// KnownSentiment reports whether the label belongs to the closed label set.
func KnownSentiment(label SentimentLabel) bool {
	switch label {
	case SentimentPositive, SentimentNeutral, SentimentNegative,
		SentimentExcited, SentimentNervous, SentimentConfident:
		return true
	default:
		return false
	}
}

// Sentiment carries a label and a confidence score in [0, 1].
type Sentiment struct {
	Label      SentimentLabel
	Confidence float64
}

// NeutralSentiment is the safe default returned whenever classification
// fails or produces an unknown label.
func NeutralSentiment() Sentiment {
	return Sentiment{Label: SentimentNeutral, Confidence: 0.5}
}

// QuestionRequest describes the candidate profile slice used to generate
// technical screening questions.
type QuestionRequest struct {
	Name       string
	Experience string
	Positions  string
	TechStack  string
}

// Completer is the model-client facade consumed by the conversation engine.
// Implementations fail closed: every method returns a usable value even when
// the provider is unreachable, so the engine never has to handle a model
// error mid-conversation.
type Completer interface {
	// Complete replays the messages with an optional system prompt and
	// returns the model reply, or a fixed apologetic fallback on failure.
	Complete(ctx context.Context, messages []Message, systemPrompt string, temperature float32, maxTokens int32) string

	// AnalyzeSentiment classifies a single candidate message. It returns
	// NeutralSentiment on any parse or provider failure.
	AnalyzeSentiment(ctx context.Context, message string) Sentiment

	// GenerateTechnicalQuestions produces the markdown question block for
	// the candidate, using a lower temperature and a larger token budget
	// than ordinary chat.
	GenerateTechnicalQuestions(ctx context.Context, req QuestionRequest) string
}
