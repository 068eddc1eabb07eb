package agent

import (
	"fmt"
	"strings"

	"github.com/richhaase/reviewbridge/internal/domain"
)

// Compile-time interface check
var _ Agent = (*PiAgent)(nil)

// PiAgent implements the Agent interface for the pi coding agent CLI.
// Models are addressed as "provider/model".
type PiAgent struct {
	vendorCLI
}

// NewPiAgent creates a new PiAgent instance.
func NewPiAgent() *PiAgent {
	return &PiAgent{vendorCLI{
		name:           "pi",
		defaultCommand: "pi",
		commandEnv:     "REVIEWBRIDGE_PI_CMD",
		pseudoModels:   []string{"", "default"},
		tierModels: map[domain.Tier]string{
			domain.TierFast:     "google/gemini-2.5-flash",
			domain.TierBalanced: "anthropic/claude-sonnet-4-5",
			domain.TierThorough: "anthropic/claude-opus-4-1",
		},
		// pi's task tool must not spawn nested agents.
		fixedEnv: map[string]string{"PI_TASK_MAX_DEPTH": "0"},
	}}
}

// splitPiModel splits "provider/model" on the first slash. A model without a
// slash has no provider.
func splitPiModel(model string) (provider, name string, err error) {
	provider, name, found := strings.Cut(model, "/")
	if !found {
		return "", model, nil
	}
	if provider == "" || name == "" {
		return "", "", fmt.Errorf("invalid pi model %q, want provider/model", model)
	}
	return provider, name, nil
}

func (p *PiAgent) baseArgs(model string) ([]string, error) {
	args := []string{"--mode", "json", "-p", "--no-session"}
	if !p.selectsModel(model) {
		return args, nil
	}
	provider, name, err := splitPiModel(model)
	if err != nil {
		return nil, err
	}
	if provider != "" {
		args = append(args, "--provider", provider)
	}
	return append(args, "--model", name), nil
}

// BuildInvocation builds 'pi --mode json -p ...' with the prompt on stdin.
// Yolo has no flag of its own: it just drops the tool allowlist.
func (p *PiAgent) BuildInvocation(model string, cfg *domain.ProviderConfig) (*Invocation, error) {
	args, err := p.baseArgs(model)
	if err != nil {
		return nil, err
	}
	if !cfg.IsYolo() {
		args = append(args, "--tools", "read,grep,find,ls")
	}
	return p.newInvocation(model, cfg, args, nil), nil
}

// BuildExtractionConfig builds a pi call on the tier's model. A malformed
// configured model is passed through as a bare --model value.
func (p *PiAgent) BuildExtractionConfig(tier domain.Tier, cfg *domain.ProviderConfig) domain.ExtractionConfig {
	model := p.extractionModel(tier, cfg)
	args, err := p.baseArgs(model)
	if err != nil {
		args = []string{"--mode", "json", "-p", "--no-session", "--model", model}
	}
	return p.newExtractionConfig(model, cfg, args, nil)
}
