package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richhaase/reviewbridge/internal/stream"
)

func TestPiAgent_Normalize(t *testing.T) {
	t.Parallel()
	a := NewPiAgent()
	opts := NormalizeOptions{CWD: "/tmp/worktree-abc"}

	tests := []struct {
		name     string
		line     string
		wantType stream.EventType
		wantText string
		wantNil  bool
	}{
		{
			name:     "assistant message end",
			line:     `{"type":"message_end","message":{"role":"assistant","content":[{"type":"thinking","thinking":"hmm"},{"type":"text","text":"Reviewing  now"}]}}`,
			wantType: stream.EventAssistantText,
			wantText: "Reviewing now",
		},
		{
			name:     "text preferred over tool call",
			line:     `{"type":"message_end","message":{"role":"assistant","content":[{"type":"toolCall","name":"read","arguments":{"path":"a"}},{"type":"text","text":"reading"}]}}`,
			wantType: stream.EventAssistantText,
			wantText: "reading",
		},
		{
			name:     "tool call only message",
			line:     `{"type":"message_end","message":{"role":"assistant","content":[{"type":"toolCall","id":"c1","name":"bash","arguments":{"command":"ls -la"}}]}}`,
			wantType: stream.EventToolUse,
			wantText: "bash: ls -la",
		},
		{
			name:     "tool execution start",
			line:     `{"type":"tool_execution_start","toolCallId":"c1","toolName":"read","args":{"path":"/tmp/worktree-abc/src/index.js"}}`,
			wantType: stream.EventToolUse,
			wantText: "read: src/index.js",
		},
		{
			name:     "tool execution without name",
			line:     `{"type":"tool_execution_start","args":{}}`,
			wantType: stream.EventToolUse,
			wantText: "unknown",
		},
		{name: "user message end", line: `{"type":"message_end","message":{"role":"user","content":[{"type":"text","text":"hi"}]}}`, wantNil: true},
		{name: "tool result message", line: `{"type":"message_end","message":{"role":"toolResult","content":[{"type":"text","text":"file body"}]}}`, wantNil: true},
		{name: "message update", line: `{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"x"}}`, wantNil: true},
		{name: "tool execution end", line: `{"type":"tool_execution_end","toolName":"read","result":{}}`, wantNil: true},
		{name: "session", line: `{"type":"session","id":"s","cwd":"/tmp"}`, wantNil: true},
		{name: "turn end", line: `{"type":"turn_end","message":{"role":"assistant","content":[{"type":"text","text":"done"}]}}`, wantNil: true},
		{name: "thinking only", line: `{"type":"message_end","message":{"role":"assistant","content":[{"type":"thinking","thinking":"..."}]}}`, wantNil: true},
		{name: "empty", line: "", wantNil: true},
		{name: "not json", line: "warning: deprecated flag", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := a.Normalize(tt.line, opts)
			if tt.wantNil {
				assert.Nil(t, ev)
				return
			}
			require.NotNil(t, ev)
			assert.Equal(t, tt.wantType, ev.Type)
			assert.Equal(t, tt.wantText, ev.Text)
		})
	}
}

func TestPiAgent_Extract_MessageEnd(t *testing.T) {
	t.Parallel()
	raw := `{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"{\"k\":1}"}]}}` + "\n"

	got := NewPiAgent().Extract(raw)

	require.True(t, got.Success, "error: %s", got.Error)
	assert.Equal(t, map[string]any{"k": float64(1)}, got.Data)
}

func TestPiAgent_Extract_DeltaAndTurnEndCollapse(t *testing.T) {
	t.Parallel()
	raw := `{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"{\"k\":"}}
{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"1}"}}
{"type":"turn_end","message":{"role":"assistant","content":[{"type":"text","text":"{\"k\":1}"}]}}`

	dec := &piTranscript{}
	set := newSeenText()
	for _, line := range strings.Split(raw, "\n") {
		dec.decodeLine(line, set)
	}
	dec.finish(set)

	assert.Equal(t, []string{`{"k":1}`}, set.order)
	got := NewPiAgent().Extract(raw)
	require.True(t, got.Success)
	assert.Equal(t, map[string]any{"k": float64(1)}, got.Data)
}

func TestPiAgent_Extract(t *testing.T) {
	t.Parallel()
	a := NewPiAgent()

	tests := []struct {
		name    string
		raw     string
		want    any
		wantErr bool
	}{
		{
			name: "full session",
			raw: `{"type":"session","id":"s"}
{"type":"agent_start"}
{"type":"turn_start"}
{"type":"message_start","message":{"role":"user","content":[{"type":"text","text":"{\"prompt\":true}"}]}}
{"type":"message_end","message":{"role":"user","content":[{"type":"text","text":"{\"prompt\":true}"}]}}
{"type":"message_start","message":{"role":"assistant","content":[]}}
{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"[\"a\","}}
{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"\"b\"]"}}
{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"[\"a\",\"b\"]"}]}}
{"type":"turn_end","message":{"role":"assistant","content":[{"type":"text","text":"[\"a\",\"b\"]"}]}}
{"type":"agent_end","messages":[{"role":"user","content":[{"type":"text","text":"{\"prompt\":true}"}]},{"role":"assistant","content":[{"type":"text","text":"[\"a\",\"b\"]"}]}]}`,
			want: []any{"a", "b"},
		},
		{
			name: "message end without text uses pending deltas",
			raw: `{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"{\"p\":"}}
{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"2}"}}
{"type":"message_end","message":{"role":"assistant","content":[{"type":"toolCall","name":"read","arguments":{}}]}}`,
			want: map[string]any{"p": float64(2)},
		},
		{
			name: "truncated stream keeps pending deltas",
			raw: `{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"{\"t\":"}}
{"type":"message_update","assistantMessageEvent":{"type":"text_delta","delta":"true}"}}
{"type":"message_upd`,
			want: map[string]any{"t": true},
		},
		{
			name: "thinking deltas ignored",
			raw: `{"type":"message_update","assistantMessageEvent":{"type":"thinking_delta","delta":"{\"no\":1}"}}
{"type":"message_end","message":{"role":"assistant","content":[{"type":"thinking","thinking":"{\"no\":1}"},{"type":"text","text":"{\"yes\":1}"}]}}`,
			want: map[string]any{"yes": float64(1)},
		},
		{
			name:    "noise only",
			raw:     "plain text line 1\nno json here\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Extract(tt.raw)
			if tt.wantErr {
				assert.False(t, got.Success)
				return
			}
			require.True(t, got.Success, "error: %s", got.Error)
			assert.Equal(t, tt.want, got.Data)
		})
	}
}
