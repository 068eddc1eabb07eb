package agent

import (
	"errors"
	"strings"

	"github.com/goccy/go-json"

	"github.com/richhaase/reviewbridge/internal/domain"
)

const (
	errEmptyOutput = "empty output"
	errNoJSON      = "no valid JSON found in output"
)

// ParseJSONText runs the extraction pipeline over text, stopping at the first
// stage that yields valid JSON:
//
//  1. the trimmed text parsed directly
//  2. the interior of a single surrounding markdown code fence
//  3. the first balanced {...} or [...] span that parses
func ParseJSONText(text string) domain.ParseResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ParseFailed(errEmptyOutput)
	}

	if v, ok := decodeJSON(trimmed); ok {
		return domain.ParseOK(v)
	}

	if strings.HasPrefix(trimmed, "```") {
		if v, ok := decodeJSON(StripMarkdownCodeFence(trimmed)); ok {
			return domain.ParseOK(v)
		}
	}

	if span, ok := FindBalancedJSON(trimmed); ok {
		if v, ok := decodeJSON(span); ok {
			return domain.ParseOK(v)
		}
	}

	return domain.ParseFailed(errNoJSON)
}

// ExtractJSON returns the JSON document embedded in s, tolerating code fences
// and surrounding prose.
func ExtractJSON(s string) (string, error) {
	trimmed := StripMarkdownCodeFence(s)
	if trimmed == "" {
		return "", errors.New(errEmptyOutput)
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	if span, ok := FindBalancedJSON(trimmed); ok {
		return span, nil
	}
	return "", errors.New(errNoJSON)
}

// StripMarkdownCodeFence removes one surrounding ``` fence, with or without a
// json language tag. Text without a fence is returned trimmed.
func StripMarkdownCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// FindBalancedJSON returns the first balanced {...} or [...] span of s that is
// valid JSON. Brackets inside string literals are ignored and backslash
// escapes are honored. A span that is balanced but invalid moves the scan on
// to the next opener.
func FindBalancedJSON(s string) (string, bool) {
	closers := make(map[int]int)
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		end, ok := closers[start]
		if !ok {
			end = matchBracket(s, start, closers)
		}
		if end < 0 {
			continue
		}
		if span := s[start : end+1]; json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

// matchBracket returns the index of the bracket closing the one at start, or
// -1. A mismatched closer ends the attempt. Every opener met outside a string
// literal is recorded in closers with its own closer, or -1 when it never
// closes, so later starts at those openers need no rescan.
func matchBracket(s string, start int, closers map[int]int) int {
	stack := make([]int, 0, 8)
	inString := false
	escaped := false

	unclosed := func() int {
		for _, open := range stack {
			closers[open] = -1
		}
		return -1
	}

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, i)
		case '}', ']':
			open := stack[len(stack)-1]
			if closerOf(s[open]) != c {
				return unclosed()
			}
			stack = stack[:len(stack)-1]
			closers[open] = i
			if len(stack) == 0 {
				return i
			}
		}
	}
	return unclosed()
}

func closerOf(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

func decodeJSON(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	// A bare null leaves nothing to report as data.
	return v, v != nil
}
