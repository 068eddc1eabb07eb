package agent

import (
	"regexp"
	"slices"
)

// authExitCodes maps agent names to known authentication failure exit codes.
var authExitCodes = map[string][]int{
	"gemini": {41},
}

// authStderrPattern matches stderr output that indicates an authentication
// failure. Status codes must stand alone so ports and ids do not match.
var authStderrPattern = regexp.MustCompile(`(?i)api_key|unauthorized|\b401\b|authentication required|invalid credentials|not logged in`)

// authHints maps agent names to actionable error messages shown on auth failure.
var authHints = map[string]string{
	"gemini": "Set GEMINI_API_KEY or run 'gemini' interactively to authenticate.",
	"claude": "Run 'claude login' or check your API key configuration.",
	"codex":  "Set OPENAI_API_KEY or run 'codex login' to authenticate.",
	"pi":     "Configure provider API keys for pi (e.g. ANTHROPIC_API_KEY) or run 'pi' and use /login.",
}

// IsAuthFailure returns true if the given exit code and stderr indicate
// an authentication failure for the named agent. Exit code 0 is never
// considered an auth failure.
func IsAuthFailure(agentName string, exitCode int, stderr string) bool {
	if exitCode == 0 {
		return false
	}

	if codes, ok := authExitCodes[agentName]; ok {
		if slices.Contains(codes, exitCode) {
			return true
		}
	}

	return authStderrPattern.MatchString(stderr)
}

// AuthHint returns an actionable error message for the named agent.
// Returns a generic hint for unknown agents.
func AuthHint(agentName string) string {
	if hint, ok := authHints[agentName]; ok {
		return hint
	}
	return "Check your authentication configuration for " + agentName + "."
}
