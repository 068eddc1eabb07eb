package domain

import (
	"fmt"
	"slices"
)

// ModelConfig holds per-model overrides inside a ProviderConfig.
type ModelConfig struct {
	ID        string            `yaml:"id" json:"id"`
	ExtraArgs []string          `yaml:"extra_args,omitempty" json:"extra_args,omitempty"`
	Env       map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// ProviderConfig is the caller-supplied configuration for one provider instance.
// It is read-only input to the invocation builders; builders copy what they need.
type ProviderConfig struct {
	// Command overrides the built-in executable. A value containing whitespace
	// is run through the shell.
	Command string `yaml:"command,omitempty" json:"command,omitempty"`

	// ExtraArgs are appended after the agent's fixed flags.
	ExtraArgs []string `yaml:"extra_args,omitempty" json:"extra_args,omitempty"`

	// Env is merged into the subprocess environment.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// Yolo removes tool restrictions. Nil means "not set" so a global default can apply.
	Yolo *bool `yaml:"yolo,omitempty" json:"yolo,omitempty"`

	// ExtractionModel overrides the tier table for extraction-only invocations.
	ExtractionModel string `yaml:"extraction_model,omitempty" json:"extraction_model,omitempty"`

	// Models holds per-model extra args and env.
	Models []ModelConfig `yaml:"models,omitempty" json:"models,omitempty"`
}

// IsYolo reports whether tool restrictions are disabled.
func (c *ProviderConfig) IsYolo() bool {
	return c != nil && c.Yolo != nil && *c.Yolo
}

// Model returns the model entry with the given id, or nil.
func (c *ProviderConfig) Model(id string) *ModelConfig {
	if c == nil || id == "" {
		return nil
	}
	for i := range c.Models {
		if c.Models[i].ID == id {
			return &c.Models[i]
		}
	}
	return nil
}

// ExtractionConfig describes a lightweight, extraction-only invocation of an agent CLI.
type ExtractionConfig struct {
	Command        string            `json:"command"`
	Args           []string          `json:"args"`
	UseShell       bool              `json:"use_shell"`
	PromptViaStdin bool              `json:"prompt_via_stdin"`
	Env            map[string]string `json:"env"`
	// Model is the extraction model the args were built for.
	Model string `json:"model,omitempty"`
}

// Tier is a caller-facing speed/quality class used to pick an extraction model.
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierThorough Tier = "thorough"
)

// Tiers lists all valid tiers.
var Tiers = []Tier{TierFast, TierBalanced, TierThorough}

// ParseTier validates a tier name. Empty input yields TierFast.
func ParseTier(s string) (Tier, error) {
	if s == "" {
		return TierFast, nil
	}
	t := Tier(s)
	if !slices.Contains(Tiers, t) {
		return "", fmt.Errorf("unknown tier %q, supported: fast, balanced, thorough", s)
	}
	return t, nil
}
