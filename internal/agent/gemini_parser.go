package agent

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
)

// geminiLine is one line of 'gemini -o stream-json'. Response is set by the
// single-object '-o json' form.
type geminiLine struct {
	Type       string          `json:"type"`
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	Delta      bool            `json:"delta"`
	ToolName   string          `json:"tool_name"`
	Parameters map[string]any  `json:"parameters"`
	Response   any             `json:"response"`
}

func decodeGeminiLine(line string) (*geminiLine, bool) {
	var l geminiLine
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		return nil, false
	}
	return &l, true
}

func (l *geminiLine) isAssistantMessage() bool {
	return l.Type == "message" && l.Role == "assistant"
}

// Normalize surfaces assistant messages (including deltas) and tool_use lines.
func (g *GeminiAgent) Normalize(line string, opts NormalizeOptions) *stream.Event {
	l, ok := decodeGeminiLine(line)
	if !ok {
		return nil
	}
	switch {
	case l.isAssistantMessage():
		return textEvent(joinedText(decodeContent(l.Content)))
	case l.Type == "tool_use":
		return toolEvent(l.ToolName, l.Parameters, opts.CWD)
	}
	return nil
}

// Extract joins streamed delta chunks into whole messages before
// deduplicating, and understands the single-object '-o json' transcript.
func (g *GeminiAgent) Extract(raw string) domain.ParseResult {
	return extractTranscript(raw, &geminiTranscript{raw: raw})
}

type geminiTranscript struct {
	raw     string
	pending strings.Builder
}

func (t *geminiTranscript) decodeLine(line string, seen *seenText) {
	l, ok := decodeGeminiLine(line)
	if !ok {
		return
	}
	if l.isAssistantMessage() && l.Delta {
		t.pending.WriteString(joinedText(decodeContent(l.Content)))
		return
	}
	t.closeDelta(seen)

	if l.isAssistantMessage() {
		seen.add(joinedText(decodeContent(l.Content)))
		return
	}
	if s, ok := l.Response.(string); ok {
		seen.add(s)
	}
}

func (t *geminiTranscript) closeDelta(seen *seenText) {
	if t.pending.Len() == 0 {
		return
	}
	seen.add(t.pending.String())
	t.pending.Reset()
}

func (t *geminiTranscript) finish(seen *seenText) {
	t.closeDelta(seen)
	if seen.Len() > 0 {
		return
	}
	// A pretty-printed '-o json' object spans many lines.
	if l, ok := decodeGeminiLine(strings.TrimSpace(t.raw)); ok {
		if s, ok := l.Response.(string); ok {
			seen.add(s)
		}
	}
}
