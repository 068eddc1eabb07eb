package agent

import (
	"github.com/richhaase/reviewbridge/internal/domain"
)

// Compile-time interface check
var _ Agent = (*CodexAgent)(nil)

// CodexAgent implements the Agent interface for the Codex CLI backend.
type CodexAgent struct {
	vendorCLI
}

// NewCodexAgent creates a new CodexAgent instance.
func NewCodexAgent() *CodexAgent {
	return &CodexAgent{vendorCLI{
		name:           "codex",
		defaultCommand: "codex",
		commandEnv:     "REVIEWBRIDGE_CODEX_CMD",
		pseudoModels:   []string{"", "default"},
		tierModels: map[domain.Tier]string{
			domain.TierFast:     "gpt-5-codex-mini",
			domain.TierBalanced: "gpt-5-codex",
			domain.TierThorough: "gpt-5-codex",
		},
	}}
}

// codexStdinMarker tells 'codex exec' to read the prompt from stdin. It must
// come after every flag.
var codexStdinMarker = []string{"-"}

func (c *CodexAgent) baseArgs(model string) []string {
	args := []string{"exec", "--json", "--color", "never", "--skip-git-repo-check"}
	if c.selectsModel(model) {
		args = append(args, "-m", model)
	}
	return args
}

// BuildInvocation builds 'codex exec --json ... -'.
func (c *CodexAgent) BuildInvocation(model string, cfg *domain.ProviderConfig) (*Invocation, error) {
	args := c.baseArgs(model)
	if cfg.IsYolo() {
		args = append(args, "--dangerously-bypass-approvals-and-sandbox")
	} else {
		args = append(args, "--sandbox", "read-only")
	}
	return c.newInvocation(model, cfg, args, codexStdinMarker), nil
}

// BuildExtractionConfig builds a sandbox-free codex call on the tier's model.
func (c *CodexAgent) BuildExtractionConfig(tier domain.Tier, cfg *domain.ProviderConfig) domain.ExtractionConfig {
	model := c.extractionModel(tier, cfg)
	return c.newExtractionConfig(model, cfg, c.baseArgs(model), codexStdinMarker)
}
