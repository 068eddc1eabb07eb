package agent

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// SupportedAgents lists all valid agent names.
var SupportedAgents = []string{"claude", "codex", "gemini", "pi"}

// DefaultAgent is the agent used when none is specified.
const DefaultAgent = "claude"

// UnknownAgentError is returned for an agent name outside SupportedAgents.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q, supported: %s", e.Name, strings.Join(SupportedAgents, ", "))
}

// NewAgent creates an Agent by name.
func NewAgent(name string) (Agent, error) {
	switch name {
	case "claude":
		return NewClaudeAgent(), nil
	case "codex":
		return NewCodexAgent(), nil
	case "gemini":
		return NewGeminiAgent(), nil
	case "pi":
		return NewPiAgent(), nil
	default:
		return nil, &UnknownAgentError{Name: name}
	}
}

// Target is one agent/model pair to run.
type Target struct {
	Agent string
	Model string
}

// String renders the target as "agent" or "agent:model".
func (t Target) String() string {
	if t.Model == "" {
		return t.Agent
	}
	return t.Agent + ":" + t.Model
}

// ParseTargets splits a comma-separated list of "agent[:model]" entries.
// Entries without a model use defaultModel. Whitespace is trimmed and an empty
// input yields the default agent.
func ParseTargets(input, defaultModel string) []Target {
	parts := strings.Split(input, ",")
	targets := make([]Target, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, model, found := strings.Cut(part, ":")
		if !found {
			model = defaultModel
		}
		targets = append(targets, Target{Agent: strings.TrimSpace(name), Model: strings.TrimSpace(model)})
	}

	if len(targets) == 0 {
		return []Target{{Agent: DefaultAgent, Model: defaultModel}}
	}
	return targets
}

// ValidateTargets checks that every target names a supported agent.
func ValidateTargets(targets []Target) error {
	var invalid []string
	for _, t := range targets {
		if !slices.Contains(SupportedAgents, t.Agent) {
			invalid = append(invalid, t.Agent)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("unsupported agent(s): %s (supported: %v)",
			strings.Join(invalid, ", "), SupportedAgents)
	}

	return nil
}

// FormatDistribution returns a human-readable summary of the targets.
// Example: "2×claude, 1×codex".
func FormatDistribution(targets []Target) string {
	if len(targets) == 0 {
		return ""
	}
	if len(targets) == 1 {
		return targets[0].String()
	}

	counts := make(map[string]int)
	for _, t := range targets {
		counts[t.Agent]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%d×%s", counts[name], name))
	}

	return strings.Join(parts, ", ")
}
