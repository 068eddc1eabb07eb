package agent

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
)

// piLine is one line of 'pi --mode json'.
type piLine struct {
	Type                  string     `json:"type"`
	Message               *piMessage `json:"message"`
	AssistantMessageEvent *struct {
		Type  string `json:"type"`
		Delta string `json:"delta"`
	} `json:"assistantMessageEvent"`
	ToolName string         `json:"toolName"`
	Args     map[string]any `json:"args"`
	Messages []piMessage    `json:"messages"`
}

type piMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// assistantText returns the joined text blocks of an assistant message.
func (m *piMessage) assistantText() (string, bool) {
	if m == nil || m.Role != "assistant" {
		return "", false
	}
	return joinedText(decodeContent(m.Content)), true
}

func decodePiLine(line string) (*piLine, bool) {
	var l piLine
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		return nil, false
	}
	return &l, true
}

// Normalize surfaces finished assistant messages and tool executions.
func (p *PiAgent) Normalize(line string, opts NormalizeOptions) *stream.Event {
	l, ok := decodePiLine(line)
	if !ok {
		return nil
	}
	switch l.Type {
	case "message_end":
		if l.Message == nil || l.Message.Role != "assistant" {
			return nil
		}
		blocks := decodeContent(l.Message.Content)
		if text := firstText(blocks); text != "" {
			return textEvent(text)
		}
		for _, b := range blocks {
			if b.Type == "toolCall" {
				return toolEvent(b.Name, b.Arguments, opts.CWD)
			}
		}
	case "tool_execution_start":
		return toolEvent(l.ToolName, l.Args, opts.CWD)
	}
	return nil
}

// Extract accumulates streamed deltas and completed assistant messages. The
// same text typically arrives several times (deltas, message_end, turn_end,
// agent_end) and collapses to one fragment.
func (p *PiAgent) Extract(raw string) domain.ParseResult {
	return extractTranscript(raw, &piTranscript{})
}

type piTranscript struct {
	pending strings.Builder
}

func (t *piTranscript) decodeLine(line string, seen *seenText) {
	l, ok := decodePiLine(line)
	if !ok {
		return
	}
	switch l.Type {
	case "message_update":
		if ev := l.AssistantMessageEvent; ev != nil && ev.Type == "text_delta" {
			t.pending.WriteString(ev.Delta)
		}
	case "message_end":
		text, ok := l.Message.assistantText()
		if !ok {
			return
		}
		if strings.TrimSpace(text) == "" {
			text = t.pending.String()
		}
		seen.add(text)
		t.pending.Reset()
	case "turn_end":
		if text, ok := l.Message.assistantText(); ok {
			seen.add(text)
		}
	case "agent_end":
		for i := range l.Messages {
			if text, ok := l.Messages[i].assistantText(); ok {
				seen.add(text)
			}
		}
	}
}

func (t *piTranscript) finish(seen *seenText) {
	if t.pending.Len() > 0 {
		seen.add(t.pending.String())
	}
}
