package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly, from a markdown code fence, or from an embedded
// array or object.
var ErrParseFailed = errors.New("failed to parse response")

var (
	jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")
	thinkRegex     = regexp.MustCompile(`(?s)<think>.*?(?:</think>|$)`)
)

// Parse attempts to unmarshal model output as JSON into T.
// Reasoning blocks (<think>...</think>) are removed first. If direct parsing
// fails, it extracts JSON from a markdown code fence, then from the outermost
// bracketed region, and retries. Returns ErrParseFailed if every attempt fails.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(StripThink(content))

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	matches := jsonBlockRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		cleaned := strings.TrimSpace(matches[1])
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			return result, nil
		}
	}

	if region, ok := bracketed(content); ok {
		if err := json.Unmarshal([]byte(region), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}

// StripThink removes reasoning blocks some models emit ahead of their answer.
// An unclosed block is dropped to the end of the content.
func StripThink(content string) string {
	return thinkRegex.ReplaceAllString(content, "")
}

func bracketed(s string) (string, bool) {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", false
	}
	closer := "]"
	if s[start] == '{' {
		closer = "}"
	}
	end := strings.LastIndex(s, closer)
	if end < start {
		return "", false
	}
	return s[start : end+1], true
}
