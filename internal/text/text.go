// Package text holds the deterministic string processing used around model
// calls: input sanitization, exit-intent detection and extraction of the
// structured JSON block the model embeds in otherwise free-form replies.
package text

import (
	"encoding/json"
	"regexp"
	"strings"
)

// maxInputRunes bounds sanitized candidate input.
const maxInputRunes = 2000

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// A fenced block like ```json { ... } ``` takes priority over a bare
	// object carrying the "extracted" key.
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	rawJSONRe    = regexp.MustCompile(`(?s)\{[^{}]*"extracted"[^{}]*\{.*?\}.*?\}`)

	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Sanitize trims the input, collapses whitespace runs to single spaces and
// truncates to 2000 runes. Idempotent.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")

	runes := []rune(s)
	if len(runes) > maxInputRunes {
		// Truncation can expose a trailing space; trim again so the
		// function stays idempotent.
		return strings.TrimSpace(string(runes[:maxInputRunes]))
	}
	return string(runes)
}

// DetectExitIntent reports whether the message signals the candidate wants
// to end the conversation: the normalized text equals a keyword or starts
// with one. Case-insensitive; prefix match, never substring.
func DetectExitIntent(message string, keywords []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return false
	}

	for _, keyword := range keywords {
		if normalized == keyword || strings.HasPrefix(normalized, keyword) {
			return true
		}
	}
	return false
}

// ExtractStructuredBlock finds the JSON payload the model was instructed to
// append to its reply. The first fenced ```json block wins; failing that, a
// bare object containing the "extracted" key is tried. Returns nil when
// neither parses as valid JSON: a miss is an expected outcome, not an error.
func ExtractStructuredBlock(response string) map[string]any {
	if match := fencedJSONRe.FindStringSubmatch(response); match != nil {
		if parsed := parseObject(match[1]); parsed != nil {
			return parsed
		}
	}

	if match := rawJSONRe.FindString(response); match != "" {
		if parsed := parseObject(match); parsed != nil {
			return parsed
		}
	}

	return nil
}

func parseObject(candidate string) map[string]any {
	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil
	}
	return data
}

// StripStructuredBlock removes the fenced JSON block and any trailing bare
// object carrying the "extracted" key, leaving only the conversational part
// shown to the candidate.
func StripStructuredBlock(response string) string {
	cleaned := fencedJSONRe.ReplaceAllString(response, "")
	cleaned = rawJSONRe.ReplaceAllString(cleaned, "")
	cleaned = blankLinesRe.ReplaceAllString(strings.TrimSpace(cleaned), "\n\n")
	return strings.TrimSpace(cleaned)
}
