package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/talentscout/talentbot/internal/ai"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type stubResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type stubCaller struct {
	responses []stubResponse
	calls     int

	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
}

func (s *stubCaller) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.lastModel = model
	s.lastContents = contents
	s.lastConfig = config

	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		return nil, errors.New("no response queued")
	}
	return s.responses[idx].resp, s.responses[idx].err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func newTestClient(stub *stubCaller, maxRetries int) *Client {
	return &Client{
		caller:     stub,
		modelName:  "test-model",
		maxRetries: maxRetries,
		maxLogLen:  defaultMaxLogLength,
		logger:     zap.NewNop(),
	}
}

func TestCompleteMapsRolesAndSystemPrompt(t *testing.T) {
	stub := &stubCaller{responses: []stubResponse{{resp: textResponse("hello there")}}}
	client := newTestClient(stub, 0)

	messages := []ai.Message{
		{Role: ai.RoleAssistant, Content: "Welcome!"},
		{Role: ai.RoleUser, Content: "Hi, I'm Ada."},
	}

	reply := client.Complete(context.Background(), messages, "be friendly", 0.7, 1024)
	if reply != "hello there" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(stub.lastContents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(stub.lastContents))
	}
	if stub.lastContents[0].Role != genai.RoleModel {
		t.Fatalf("expected assistant mapped to model role, got %q", stub.lastContents[0].Role)
	}
	if stub.lastContents[1].Role != genai.RoleUser {
		t.Fatalf("expected user role, got %q", stub.lastContents[1].Role)
	}

	if stub.lastConfig.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if stub.lastConfig.Temperature == nil || *stub.lastConfig.Temperature != 0.7 {
		t.Fatalf("unexpected temperature: %v", stub.lastConfig.Temperature)
	}
	if stub.lastConfig.MaxOutputTokens != 1024 {
		t.Fatalf("unexpected max tokens: %d", stub.lastConfig.MaxOutputTokens)
	}
}

func TestCompleteFailsClosed(t *testing.T) {
	stub := &stubCaller{responses: []stubResponse{{err: errors.New("quota exceeded")}}}
	client := newTestClient(stub, 0)

	reply := client.Complete(context.Background(),
		[]ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "", 0.7, 1024)

	if reply != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
}

func TestCompleteRetriesBeforeFallingBack(t *testing.T) {
	stub := &stubCaller{responses: []stubResponse{
		{err: errors.New("transient")},
		{resp: textResponse("recovered")},
	}}
	client := newTestClient(stub, 1)

	reply := client.Complete(context.Background(),
		[]ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "", 0.7, 1024)

	if reply != "recovered" {
		t.Fatalf("expected recovery on retry, got %q", reply)
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", stub.calls)
	}
}

func TestCompleteEmptyResponseFallsBack(t *testing.T) {
	stub := &stubCaller{responses: []stubResponse{{resp: &genai.GenerateContentResponse{}}}}
	client := newTestClient(stub, 0)

	reply := client.Complete(context.Background(),
		[]ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "", 0.7, 1024)

	if reply != FallbackReply {
		t.Fatalf("expected fallback on empty response, got %q", reply)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reply      string
		err        error
		expect     ai.SentimentLabel
		confidence float64
	}{
		{
			name:       "plain object",
			reply:      `{"sentiment": "confident", "confidence": 0.8}`,
			expect:     ai.SentimentConfident,
			confidence: 0.8,
		},
		{
			name:       "fenced object",
			reply:      "```json\n{\"sentiment\": \"excited\", \"confidence\": 0.9}\n```",
			expect:     ai.SentimentExcited,
			confidence: 0.9,
		},
		{
			name:       "unknown label defaults to neutral",
			reply:      `{"sentiment": "euphoric", "confidence": 0.9}`,
			expect:     ai.SentimentNeutral,
			confidence: 0.5,
		},
		{
			name:       "not json defaults to neutral",
			reply:      "The candidate sounds happy.",
			expect:     ai.SentimentNeutral,
			confidence: 0.5,
		},
		{
			name:       "confidence clamped",
			reply:      `{"sentiment": "positive", "confidence": 3.5}`,
			expect:     ai.SentimentPositive,
			confidence: 1,
		},
		{
			name:       "provider failure defaults to neutral",
			err:        errors.New("timeout"),
			expect:     ai.SentimentNeutral,
			confidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCaller{responses: []stubResponse{{resp: textResponse(tt.reply), err: tt.err}}}
			client := newTestClient(stub, 0)

			got := client.AnalyzeSentiment(context.Background(), "I am ready for this")

			if got.Label != tt.expect {
				t.Fatalf("expected label %q, got %q", tt.expect, got.Label)
			}
			if got.Confidence != tt.confidence {
				t.Fatalf("expected confidence %v, got %v", tt.confidence, got.Confidence)
			}
		})
	}
}

func TestAnalyzeSentimentFillsTemplate(t *testing.T) {
	stub := &stubCaller{responses: []stubResponse{{resp: textResponse(`{"sentiment": "neutral", "confidence": 0.5}`)}}}
	client := newTestClient(stub, 0)

	client.AnalyzeSentiment(context.Background(), "looking forward to it")

	if len(stub.lastContents) != 1 {
		t.Fatalf("expected one prompt content, got %d", len(stub.lastContents))
	}

	prompt := stub.lastContents[0].Parts[0].Text
	if !strings.Contains(prompt, "looking forward to it") {
		t.Fatalf("expected message substituted into prompt, got %q", prompt)
	}
	if strings.Contains(prompt, "{{MESSAGE}}") {
		t.Fatalf("placeholder left in prompt: %q", prompt)
	}

	if stub.lastConfig.Temperature == nil || *stub.lastConfig.Temperature != sentimentTemperature {
		t.Fatalf("unexpected sentiment temperature: %v", stub.lastConfig.Temperature)
	}
	if stub.lastConfig.MaxOutputTokens != sentimentMaxTokens {
		t.Fatalf("unexpected sentiment token budget: %d", stub.lastConfig.MaxOutputTokens)
	}
}

func TestGenerateTechnicalQuestions(t *testing.T) {
	stub := &stubCaller{responses: []stubResponse{{resp: textResponse("### Go\n1. Explain goroutine scheduling basics.")}}}
	client := newTestClient(stub, 0)

	reply := client.GenerateTechnicalQuestions(context.Background(), ai.QuestionRequest{
		Name:       "Ada Lovelace",
		Experience: "7",
		Positions:  "Staff Engineer",
		TechStack:  "Go, PostgreSQL",
	})

	if !strings.Contains(reply, "goroutine scheduling") {
		t.Fatalf("unexpected reply: %q", reply)
	}

	prompt := stub.lastContents[0].Parts[0].Text
	for _, expected := range []string{"Ada Lovelace", "7", "Staff Engineer", "Go, PostgreSQL"} {
		if !strings.Contains(prompt, expected) {
			t.Fatalf("expected %q in prompt, got %q", expected, prompt)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("placeholder left in prompt: %q", prompt)
	}

	if stub.lastConfig.Temperature == nil || *stub.lastConfig.Temperature != questionTemperature {
		t.Fatalf("unexpected question temperature: %v", stub.lastConfig.Temperature)
	}
	if stub.lastConfig.MaxOutputTokens != questionMaxTokens {
		t.Fatalf("unexpected question token budget: %d", stub.lastConfig.MaxOutputTokens)
	}
}

func TestGenerateTechnicalQuestionsFailsClosed(t *testing.T) {
	stub := &stubCaller{responses: []stubResponse{{err: errors.New("unavailable")}}}
	client := newTestClient(stub, 0)

	reply := client.GenerateTechnicalQuestions(context.Background(), ai.QuestionRequest{
		Name: "Ada", Experience: "2", Positions: "Engineer", TechStack: "Go",
	})

	if reply != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "   ", "", 0, 0, zap.NewNop()); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "plain",
			input:  `{"a": 1}`,
			expect: `{"a": 1}`,
		},
		{
			name:   "json fence",
			input:  "```json\n{\"a\": 1}\n```",
			expect: `{"a": 1}`,
		},
		{
			name:   "bare fence",
			input:  "```\n{\"a\": 1}\n```",
			expect: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
