package agent

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
)

// codexLine is one line of 'codex exec --json'. Msg carries the legacy
// event envelope.
type codexLine struct {
	Type string     `json:"type"`
	Item *codexItem `json:"item"`
	Msg  *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"msg"`
}

type codexItem struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Command   json.RawMessage `json:"command"`
	Tool      string          `json:"tool"`
	Server    string          `json:"server"`
	Arguments json.RawMessage `json:"arguments"`
	Query     string          `json:"query"`
	Changes   []struct {
		Path string `json:"path"`
	} `json:"changes"`
}

func decodeCodexLine(line string) (*codexLine, bool) {
	var l codexLine
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		return nil, false
	}
	return &l, true
}

func isCodexMessage(itemType string) bool {
	return itemType == "agent_message" || itemType == "assistant_message"
}

// Normalize surfaces completed agent messages and started tool items.
func (c *CodexAgent) Normalize(line string, opts NormalizeOptions) *stream.Event {
	l, ok := decodeCodexLine(line)
	if !ok || l.Item == nil {
		return nil
	}
	switch l.Type {
	case "item.completed":
		if isCodexMessage(l.Item.Type) {
			return textEvent(l.Item.Text)
		}
	case "item.started":
		if name, input, ok := l.Item.toolCall(); ok {
			return toolEvent(name, input, opts.CWD)
		}
	}
	return nil
}

// toolCall maps a tool-like item to a display name and input.
func (it *codexItem) toolCall() (string, map[string]any, bool) {
	switch it.Type {
	case "command_execution":
		return "shell", map[string]any{"command": decodeCommand(it.Command)}, true
	case "mcp_tool_call":
		name := it.Tool
		if name == "" {
			name = it.Server
		}
		return name, decodeArguments(it.Arguments), true
	case "file_change":
		input := map[string]any{}
		if len(it.Changes) > 0 {
			input["path"] = it.Changes[0].Path
		}
		return "apply_patch", input, true
	case "web_search":
		return "web_search", map[string]any{"command": it.Query}, true
	}
	return "", nil, false
}

// decodeCommand accepts a command given as a string or an argv array.
func decodeCommand(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var argv []string
	if err := json.Unmarshal(raw, &argv); err == nil {
		return strings.Join(argv, " ")
	}
	return ""
}

// decodeArguments accepts tool arguments as an object or a JSON-encoded string.
func decodeArguments(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil {
		return args
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &args); err != nil {
		return nil
	}
	return args
}

// Extract accumulates completed agent messages, including legacy msg events.
func (c *CodexAgent) Extract(raw string) domain.ParseResult {
	return extractTranscript(raw, codexTranscript{})
}

type codexTranscript struct{}

func (codexTranscript) decodeLine(line string, seen *seenText) {
	l, ok := decodeCodexLine(line)
	if !ok {
		return
	}
	if l.Type == "item.completed" && l.Item != nil && isCodexMessage(l.Item.Type) {
		seen.add(l.Item.Text)
		return
	}
	if l.Msg != nil && l.Msg.Type == "agent_message" {
		seen.add(l.Msg.Message)
	}
}

func (codexTranscript) finish(*seenText) {}
