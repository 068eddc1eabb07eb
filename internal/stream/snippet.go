package stream

import (
	"os"
	"strings"
)

// DefaultSnippetLen is the display length used for live progress text.
const DefaultSnippetLen = 200

const ellipsis = "…"

// TruncateSnippet trims text, collapses every whitespace run to one space and
// cuts the result to maxLen characters plus an ellipsis when it is longer.
// A non-positive maxLen means DefaultSnippetLen.
func TruncateSnippet(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSnippetLen
	}
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return ""
	}

	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}
	return string(runes[:maxLen]) + ellipsis
}

// StripPathPrefix makes path relative to prefix when path is prefix itself or
// lies below it. Matching is on path-segment boundaries, so "/tmp/work" does
// not strip "/tmp/worker/x". An empty prefix returns path unchanged.
func StripPathPrefix(path, prefix string) string {
	if path == "" {
		return ""
	}
	if prefix == "" {
		return path
	}

	trimmed := strings.TrimRight(prefix, `/\`)
	if path == trimmed || path == prefix {
		return ""
	}
	if !strings.HasPrefix(path, trimmed) {
		return path
	}

	rest := path[len(trimmed):]
	if rest == "" || !isSeparator(rest[0]) {
		return path
	}
	return strings.TrimLeft(rest, `/`+string(os.PathSeparator))
}

func isSeparator(c byte) bool {
	return c == '/' || c == os.PathSeparator
}
