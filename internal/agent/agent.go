package agent

import (
	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
)

// Agent is the adapter for one vendor CLI and its JSON Lines protocol.
// Implementations include ClaudeAgent, CodexAgent, GeminiAgent and PiAgent.
// Agents hold no per-invocation state and are safe for concurrent use.
type Agent interface {
	// Name returns the agent's identifier (e.g., "codex", "claude", "gemini").
	Name() string

	// IsAvailable checks that the agent's CLI can be found on PATH.
	IsAvailable(cfg *domain.ProviderConfig) error

	// Normalize maps one stdout line to a progress event, or nil when the
	// line is blank, malformed, or not worth surfacing.
	Normalize(line string, opts NormalizeOptions) *stream.Event

	// Extract reconstructs the assistant's final answer from the complete
	// stdout transcript and parses it as JSON.
	Extract(raw string) domain.ParseResult

	// BuildInvocation resolves the command, argv and env for a full agentic run.
	BuildInvocation(model string, cfg *domain.ProviderConfig) (*Invocation, error)

	// BuildExtractionConfig resolves a lightweight extraction-only call.
	BuildExtractionConfig(tier domain.Tier, cfg *domain.ProviderConfig) domain.ExtractionConfig
}

// NormalizeOptions tunes how protocol lines are rendered as events.
type NormalizeOptions struct {
	// CWD is stripped from absolute paths in tool summaries.
	CWD string
}
