package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/talentscout/talentbot/internal/ai"
	"github.com/talentscout/talentbot/internal/logger"
	"github.com/talentscout/talentbot/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel = "gemini-2.5-flash"

	// FallbackReply is surfaced to the candidate whenever the provider
	// fails. The conversation proceeds at the same phase.
	FallbackReply = "I apologize, but I'm experiencing a brief technical issue. " +
		"Could you please repeat your last message? I want to make sure I capture everything correctly."

	sentimentTemperature float32 = 0.3
	sentimentMaxTokens   int32   = 100

	// Question generation wants longer, more deterministic structured
	// output than ordinary chat.
	questionTemperature float32 = 0.6
	questionMaxTokens   int32   = 2048

	defaultMaxLogLength = 200
	retryDelay          = 2 * time.Second
)

//go:embed sentiment.md
var sentimentTemplate string

//go:embed tech_questions.md
var questionsTemplate string

// contentCaller matches the GenerateContent method of genai.Models.
type contentCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is a fail-closed facade over the Gemini API. Every public method
// returns a usable value; provider errors are logged and absorbed.
type Client struct {
	caller     contentCaller
	modelName  string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

// NewClient creates a Gemini-backed model client. A missing API key is a
// construction-time failure: the orchestration layer must not proceed
// without a usable client.
func NewClient(ctx context.Context, apiKey, model string, maxRetries, maxLogLength int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		caller:     client.Models,
		modelName:  model,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLength,
		logger:     log,
	}, nil
}

// Complete replays the transcript with the system prompt and returns the
// model reply. On failure it returns FallbackReply instead of an error.
func (c *Client) Complete(ctx context.Context, messages []ai.Message, systemPrompt string, temperature float32, maxTokens int32) string {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == ai.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	reply, err := c.generate(ctx, contents, systemPrompt, temperature, maxTokens)
	if err != nil {
		c.logger.Warn("model call failed, falling back", zap.Error(err))
		return FallbackReply
	}

	return reply
}

// AnalyzeSentiment classifies the emotional tone of a candidate message.
// Any provider or parse failure degrades to the neutral default.
func (c *Client) AnalyzeSentiment(ctx context.Context, message string) ai.Sentiment {
	prompt := strings.ReplaceAll(sentimentTemplate, "{{MESSAGE}}", message)

	raw, err := c.generate(ctx,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		"", sentimentTemperature, sentimentMaxTokens,
	)
	if err != nil {
		c.logger.Warn("sentiment analysis failed", zap.Error(err))
		return ai.NeutralSentiment()
	}

	return parseSentiment(raw)
}

// GenerateTechnicalQuestions fills the question template with the candidate
// profile slice and requests the markdown question block.
func (c *Client) GenerateTechnicalQuestions(ctx context.Context, req ai.QuestionRequest) string {
	prompt := strings.ReplaceAll(questionsTemplate, "{{NAME}}", req.Name)
	prompt = strings.ReplaceAll(prompt, "{{EXPERIENCE}}", req.Experience)
	prompt = strings.ReplaceAll(prompt, "{{POSITIONS}}", req.Positions)
	prompt = strings.ReplaceAll(prompt, "{{TECH_STACK}}", req.TechStack)

	reply, err := c.generate(ctx,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		"", questionTemperature, questionMaxTokens,
	)
	if err != nil {
		c.logger.Warn("question generation failed, falling back", zap.Error(err))
		return FallbackReply
	}

	return reply
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, systemPrompt string, temperature float32, maxTokens int32) (string, error) {
	if c == nil || c.caller == nil {
		return "", errors.New("gemini client is not initialized")
	}

	if len(contents) == 0 {
		return "", errors.New("at least one message is required")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := utils.WaitFor(ctx, retryDelay); err != nil {
				return "", err
			}
		}

		resp, err := c.caller.GenerateContent(ctx, c.modelName, contents, cfg)
		if err != nil {
			lastErr = fmt.Errorf("generate content: %w", err)
			c.logger.Debug("gemini attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		output := collectText(resp)
		if output == "" {
			lastErr = errors.New("gemini api returned empty response")
			continue
		}

		c.logger.Debug("gemini generate content response",
			zap.Int("response_length", utf8.RuneCountInString(output)),
			zap.String("response_preview", logger.TruncateForLog(output, c.maxLogLen)),
		)

		return output, nil
	}

	return "", lastErr
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// parseSentiment expects a single JSON object like
// {"sentiment": "confident", "confidence": 0.8}, possibly wrapped in a code
// fence. Anything else yields the neutral default.
func parseSentiment(raw string) ai.Sentiment {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return ai.NeutralSentiment()
	}

	label := ai.SentimentLabel(strings.ToLower(coerceString(data["sentiment"])))
	if !ai.KnownSentiment(label) {
		return ai.NeutralSentiment()
	}

	confidence := coerceFloat(data["confidence"], 0.5)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return ai.Sentiment{Label: label, Confidence: confidence}
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}
