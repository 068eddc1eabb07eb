package stream

import "time"

// EventType classifies a canonical progress event.
type EventType string

const (
	// EventAssistantText is user-visible text produced by the assistant.
	EventAssistantText EventType = "assistant_text"
	// EventToolUse is a tool or function invocation that just started.
	EventToolUse EventType = "tool_use"
)

// Event is a vendor-agnostic progress notification derived from one protocol
// line. Events are values; the sink that receives one owns it.
type Event struct {
	Type      EventType `json:"type"`
	Text      string    `json:"text"`
	Timestamp int64     `json:"timestamp"`
}

// NewEvent builds an event stamped with the current wall clock in milliseconds.
func NewEvent(typ EventType, text string) *Event {
	return &Event{Type: typ, Text: text, Timestamp: Now()}
}

// Now returns the current Unix time in milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
