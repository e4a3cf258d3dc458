// Package questions parses model-generated technical screening questions
// from markdown into ordered per-technology groups.
package questions

import (
	"regexp"
	"strings"
)

// Group is one technology with its ordered screening questions.
type Group struct {
	Technology string
	Questions  []string
}

// Captured question text shorter than this is treated as formatting noise.
const minQuestionRunes = 10

var (
	headingRe = regexp.MustCompile(`^#{1,4}\s*[🔹*]*\s*\[?\s*(.+?)\s*\]?\s*\**\s*$`)
	boldRe    = regexp.MustCompile(`^\*\*(.+?)\*\*\s*$`)

	numberedRe = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
	bulletRe   = regexp.MustCompile(`^[-•]\s*(.+)$`)
)

// Parse scans the markdown line by line. A heading (or bold-only line)
// starts a new technology; numbered or bulleted lines under it become
// questions. Technologies that accumulate no questions are dropped.
// Deterministic: re-parsing the same text yields the same groups.
func Parse(markdown string) []Group {
	var result []Group
	var current string
	var pending []string

	flush := func() {
		if current != "" && len(pending) > 0 {
			result = append(result, Group{Technology: current, Questions: pending})
		}
		pending = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if name, ok := matchTechnology(line); ok {
			flush()
			current = name
			continue
		}

		question, ok := matchQuestion(line)
		if !ok || current == "" {
			continue
		}
		if len([]rune(question)) > minQuestionRunes {
			pending = append(pending, question)
		}
	}

	flush()
	return result
}

func matchTechnology(line string) (string, bool) {
	match := headingRe.FindStringSubmatch(line)
	if match == nil {
		match = boldRe.FindStringSubmatch(line)
	}
	if match == nil {
		return "", false
	}

	name := strings.TrimSpace(match[1])
	name = strings.TrimSpace(strings.Trim(name, "🔹"))
	if name == "" {
		return "", false
	}
	return name, true
}

func matchQuestion(line string) (string, bool) {
	match := numberedRe.FindStringSubmatch(line)
	if match == nil {
		match = bulletRe.FindStringSubmatch(line)
	}
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}
