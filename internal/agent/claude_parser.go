package agent

import (
	"github.com/goccy/go-json"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
)

// claudeLine is one line of 'claude --output-format stream-json'.
type claudeLine struct {
	Type    string `json:"type"`
	Message *struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
	Result  any  `json:"result"`
	IsError bool `json:"is_error"`
}

func decodeClaudeLine(line string) (*claudeLine, bool) {
	var l claudeLine
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		return nil, false
	}
	return &l, true
}

// assistantContent returns the content blocks of an assistant message line.
func (l *claudeLine) assistantContent() ([]contentBlock, bool) {
	if l.Type != "assistant" || l.Message == nil || l.Message.Role != "assistant" {
		return nil, false
	}
	return decodeContent(l.Message.Content), true
}

// Normalize surfaces assistant text blocks and tool_use blocks. Text wins
// when a message carries both.
func (c *ClaudeAgent) Normalize(line string, opts NormalizeOptions) *stream.Event {
	l, ok := decodeClaudeLine(line)
	if !ok {
		return nil
	}
	blocks, ok := l.assistantContent()
	if !ok {
		return nil
	}
	if text := firstText(blocks); text != "" {
		return textEvent(text)
	}
	for _, b := range blocks {
		if b.Type == "tool_use" {
			return toolEvent(b.Name, b.Input, opts.CWD)
		}
	}
	return nil
}

// Extract accumulates every assistant text block plus the final result string.
func (c *ClaudeAgent) Extract(raw string) domain.ParseResult {
	return extractTranscript(raw, claudeTranscript{})
}

type claudeTranscript struct{}

func (claudeTranscript) decodeLine(line string, seen *seenText) {
	l, ok := decodeClaudeLine(line)
	if !ok {
		return
	}
	if l.Type == "result" {
		if s, ok := l.Result.(string); ok && !l.IsError {
			seen.add(s)
		}
		return
	}
	blocks, ok := l.assistantContent()
	if !ok {
		return
	}
	seen.add(joinedText(blocks))
}

func (claudeTranscript) finish(*seenText) {}
