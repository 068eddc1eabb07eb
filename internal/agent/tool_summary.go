package agent

import (
	"strings"

	"github.com/richhaase/reviewbridge/internal/stream"
)

// toolDetailKeys are checked in order; the first string value wins.
var toolDetailKeys = []string{"command", "file_path", "path"}

// summarizeTool renders a tool call as "name: detail" for live display.
func summarizeTool(name string, input map[string]any, cwd string) string {
	if strings.TrimSpace(name) == "" {
		name = "unknown"
	}
	for _, key := range toolDetailKeys {
		detail, ok := input[key].(string)
		if !ok || strings.TrimSpace(detail) == "" {
			continue
		}
		if key != "command" {
			detail = stream.StripPathPrefix(detail, cwd)
		}
		if detail == "" {
			break
		}
		return name + ": " + detail
	}
	return name
}

// textEvent returns an assistant_text event, or nil when text is blank.
func textEvent(text string) *stream.Event {
	snippet := stream.TruncateSnippet(text, stream.DefaultSnippetLen)
	if snippet == "" {
		return nil
	}
	return stream.NewEvent(stream.EventAssistantText, snippet)
}

// toolEvent returns a tool_use event summarizing the call.
func toolEvent(name string, input map[string]any, cwd string) *stream.Event {
	summary := summarizeTool(name, input, cwd)
	return stream.NewEvent(stream.EventToolUse, stream.TruncateSnippet(summary, stream.DefaultSnippetLen))
}
