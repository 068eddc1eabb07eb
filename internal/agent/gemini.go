package agent

import (
	"github.com/richhaase/reviewbridge/internal/domain"
)

// Compile-time interface check
var _ Agent = (*GeminiAgent)(nil)

// geminiAllowedTools restricts gemini to its read-only file tools.
const geminiAllowedTools = "read_file,read_many_files,glob,search_file_content,list_directory"

// GeminiAgent implements the Agent interface for the Gemini CLI backend.
type GeminiAgent struct {
	vendorCLI
}

// NewGeminiAgent creates a new GeminiAgent instance.
func NewGeminiAgent() *GeminiAgent {
	return &GeminiAgent{vendorCLI{
		name:           "gemini",
		defaultCommand: "gemini",
		commandEnv:     "REVIEWBRIDGE_GEMINI_CMD",
		pseudoModels:   []string{"", "default", "auto"},
		tierModels: map[domain.Tier]string{
			domain.TierFast:     "gemini-2.5-flash-lite",
			domain.TierBalanced: "gemini-2.5-flash",
			domain.TierThorough: "gemini-2.5-pro",
		},
	}}
}

func (g *GeminiAgent) baseArgs(model string) []string {
	args := []string{"-o", "stream-json"}
	if g.selectsModel(model) {
		args = append(args, "-m", model)
	}
	return args
}

// BuildInvocation builds 'gemini -o stream-json ...' with the prompt on stdin.
func (g *GeminiAgent) BuildInvocation(model string, cfg *domain.ProviderConfig) (*Invocation, error) {
	args := g.baseArgs(model)
	if cfg.IsYolo() {
		args = append(args, "--yolo")
	} else {
		args = append(args, "--allowed-tools", geminiAllowedTools)
	}
	return g.newInvocation(model, cfg, args, nil), nil
}

// BuildExtractionConfig builds a tool-less gemini call on the tier's model.
func (g *GeminiAgent) BuildExtractionConfig(tier domain.Tier, cfg *domain.ProviderConfig) domain.ExtractionConfig {
	model := g.extractionModel(tier, cfg)
	return g.newExtractionConfig(model, cfg, g.baseArgs(model), nil)
}
