package agent

import (
	"github.com/richhaase/reviewbridge/internal/domain"
)

// Compile-time interface check
var _ Agent = (*ClaudeAgent)(nil)

// claudeAllowedTools restricts claude to read-only inspection of the repo.
const claudeAllowedTools = "Read,Grep,Glob,LS,Bash(git diff:*),Bash(git log:*),Bash(git show:*)"

// ClaudeAgent implements the Agent interface for the Claude CLI backend.
type ClaudeAgent struct {
	vendorCLI
}

// NewClaudeAgent creates a new ClaudeAgent instance.
func NewClaudeAgent() *ClaudeAgent {
	return &ClaudeAgent{vendorCLI{
		name:           "claude",
		defaultCommand: "claude",
		commandEnv:     "REVIEWBRIDGE_CLAUDE_CMD",
		pseudoModels:   []string{"", "default"},
		tierModels: map[domain.Tier]string{
			domain.TierFast:     "haiku",
			domain.TierBalanced: "sonnet",
			domain.TierThorough: "opus",
		},
	}}
}

func (c *ClaudeAgent) baseArgs(model string) []string {
	args := []string{"-p", "--output-format", "stream-json", "--verbose", "--no-session-persistence"}
	if c.selectsModel(model) {
		args = append(args, "--model", model)
	}
	return args
}

// BuildInvocation builds 'claude -p --output-format stream-json ...' with the
// prompt on stdin.
func (c *ClaudeAgent) BuildInvocation(model string, cfg *domain.ProviderConfig) (*Invocation, error) {
	args := c.baseArgs(model)
	if cfg.IsYolo() {
		args = append(args, "--dangerously-skip-permissions")
	} else {
		args = append(args, "--allowedTools", claudeAllowedTools)
	}
	return c.newInvocation(model, cfg, args, nil), nil
}

// BuildExtractionConfig builds a tool-less claude call on the tier's model.
func (c *ClaudeAgent) BuildExtractionConfig(tier domain.Tier, cfg *domain.ProviderConfig) domain.ExtractionConfig {
	model := c.extractionModel(tier, cfg)
	return c.newExtractionConfig(model, cfg, c.baseArgs(model), nil)
}
