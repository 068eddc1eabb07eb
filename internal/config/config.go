// Package config provides configuration file support for reviewbridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/domain"
)

// ConfigFileName is the name of the per-project config file.
const ConfigFileName = ".reviewbridge.yaml"

// userConfigPath is the fallback location under $HOME.
var userConfigPath = filepath.Join(".config", "reviewbridge", "config.yaml")

// Duration is a custom type that handles YAML duration parsing.
// Supports both Go duration format ("5m", "300s") and numeric seconds.
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
	return nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Config represents the reviewbridge configuration file.
type Config struct {
	Timeout        *Duration                         `yaml:"timeout"`
	Concurrency    *int                              `yaml:"concurrency"`
	Agent          *string                           `yaml:"agent"`
	Model          *string                           `yaml:"model"`
	ExtractionTier *string                           `yaml:"extraction_tier"`
	Yolo           *bool                             `yaml:"yolo"`
	Reextract      *bool                             `yaml:"reextract"`
	Prompt         *string                           `yaml:"prompt"`
	PromptFile     *string                           `yaml:"prompt_file"`
	Providers      map[string]*domain.ProviderConfig `yaml:"providers"`
}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config   *Config
	Warnings []string
	// Path is the file that was read, empty when none was found.
	Path string
}

// Dir returns the directory holding the loaded file, or "".
func (r *LoadResult) Dir() string {
	if r == nil || r.Path == "" {
		return ""
	}
	return filepath.Dir(r.Path)
}

// LoadWithWarnings reads .reviewbridge.yaml from the working directory, falling
// back to $HOME/.config/reviewbridge/config.yaml. Returns an empty config
// (not error) if neither exists.
func LoadWithWarnings() (*LoadResult, error) {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFromPathWithWarnings(path)
		}
	}
	return &LoadResult{Config: &Config{}}, nil
}

// SearchPaths lists the config locations in lookup order.
func SearchPaths() []string {
	var paths []string
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, userConfigPath))
	}
	return paths
}

// LoadFromDirWithWarnings reads .reviewbridge.yaml from the specified directory.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	return LoadFromPathWithWarnings(filepath.Join(dir, ConfigFileName))
}

// LoadFromPathWithWarnings reads a config file and returns warnings for unknown keys.
// Returns an empty config (not error) if the file doesn't exist.
// Returns an error if the file exists but is invalid YAML or fails validation.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &LoadResult{Config: &Config{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	warnings := checkUnknownKeys(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return &LoadResult{Config: &cfg, Warnings: warnings, Path: path}, nil
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{
	"timeout", "concurrency", "agent", "model", "extraction_tier",
	"yolo", "reextract", "prompt", "prompt_file", "providers",
}

// knownProviderKeys are the valid keys of one providers entry.
var knownProviderKeys = []string{"command", "extra_args", "env", "yolo", "extraction_model", "models"}

// knownModelKeys are the valid keys of one providers.<name>.models entry.
var knownModelKeys = []string{"id", "extra_args", "env"}

// checkUnknownKeys checks for unknown keys in the YAML data and returns warnings.
func checkUnknownKeys(data []byte) []string {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// If we can't parse, let the main parser handle the error
		return nil
	}

	warnings := unknownKeys(raw, knownTopLevelKeys, "")

	providers, _ := raw["providers"].(map[string]any)
	for _, name := range sortedKeys(providers) {
		if !slices.Contains(agent.SupportedAgents, name) {
			warnings = append(warnings, unknownKeyWarning(name, agent.SupportedAgents, "providers section"))
			continue
		}
		entry, ok := providers[name].(map[string]any)
		if !ok {
			continue
		}
		section := "providers." + name
		warnings = append(warnings, unknownKeys(entry, knownProviderKeys, section)...)

		models, _ := entry["models"].([]any)
		for i, m := range models {
			if model, ok := m.(map[string]any); ok {
				warnings = append(warnings, unknownKeys(model, knownModelKeys, fmt.Sprintf("%s.models[%d]", section, i))...)
			}
		}
	}

	return warnings
}

func unknownKeys(raw map[string]any, known []string, section string) []string {
	var warnings []string
	for _, key := range sortedKeys(raw) {
		if !slices.Contains(known, key) {
			warnings = append(warnings, unknownKeyWarning(key, known, section))
		}
	}
	return warnings
}

func unknownKeyWarning(key string, known []string, section string) string {
	warning := fmt.Sprintf("unknown key %q in %s", key, ConfigFileName)
	if section != "" {
		warning = fmt.Sprintf("unknown key %q in %s of %s", key, section, ConfigFileName)
	}
	if suggestion := findSimilar(key, known); suggestion != "" {
		warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return warning
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// findSimilar finds the most similar string from candidates using Levenshtein distance.
// Returns empty string if no candidate is similar enough (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(ra)][len(rb)]
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	if c.Concurrency != nil && *c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", *c.Concurrency)
	}
	if c.Timeout != nil && *c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", time.Duration(*c.Timeout))
	}
	if c.Agent != nil {
		if err := agent.ValidateTargets(agent.ParseTargets(*c.Agent, "")); err != nil {
			return fmt.Errorf("agent: %w", err)
		}
	}
	if c.ExtractionTier != nil {
		if _, err := domain.ParseTier(*c.ExtractionTier); err != nil {
			return fmt.Errorf("extraction_tier: %w", err)
		}
	}
	for name, p := range c.Providers {
		if p == nil {
			continue
		}
		for i, m := range p.Models {
			if strings.TrimSpace(m.ID) == "" {
				return fmt.Errorf("providers.%s.models[%d]: id is required", name, i)
			}
		}
	}
	return nil
}

// Defaults holds the built-in default values.
var Defaults = ResolvedConfig{
	Timeout:        10 * time.Minute,
	Concurrency:    0, // means "one per target"
	Agent:          agent.DefaultAgent,
	ExtractionTier: domain.TierFast,
}

// ResolvedConfig holds the final resolved configuration values.
type ResolvedConfig struct {
	Timeout        time.Duration
	Concurrency    int
	Agent          string
	Model          string
	ExtractionTier domain.Tier
	Yolo           bool
	Reextract      bool
	Prompt         string
	PromptFile     string
	Providers      map[string]*domain.ProviderConfig
}

// Targets parses Agent into run targets, defaulting models to Model.
func (r ResolvedConfig) Targets() []agent.Target {
	return agent.ParseTargets(r.Agent, r.Model)
}

// Provider returns a copy of the named provider's configuration with the
// global yolo setting applied when the provider leaves it unset. The result
// is never nil.
func (r ResolvedConfig) Provider(name string) *domain.ProviderConfig {
	var p domain.ProviderConfig
	if src := r.Providers[name]; src != nil {
		p = *src
	}
	if p.Yolo == nil && r.Yolo {
		yolo := true
		p.Yolo = &yolo
	}
	return &p
}

// ProviderConfigs resolves Provider for every supported agent.
func (r ResolvedConfig) ProviderConfigs() map[string]*domain.ProviderConfig {
	out := make(map[string]*domain.ProviderConfig, len(agent.SupportedAgents))
	for _, name := range agent.SupportedAgents {
		out[name] = r.Provider(name)
	}
	return out
}

// ValidateAll reports every semantic problem with the resolved values.
func (r ResolvedConfig) ValidateAll() []string {
	var errs []string
	if r.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("timeout must be > 0, got %s", r.Timeout))
	}
	if r.Concurrency < 0 {
		errs = append(errs, fmt.Sprintf("concurrency must be >= 0, got %d", r.Concurrency))
	}
	if err := agent.ValidateTargets(r.Targets()); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := domain.ParseTier(string(r.ExtractionTier)); err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	TimeoutSet        bool
	ConcurrencySet    bool
	AgentSet          bool
	ModelSet          bool
	ExtractionTierSet bool
	YoloSet           bool
	ReextractSet      bool
	PromptSet         bool
	PromptFileSet     bool
}

// EnvState captures env var values and whether they were set.
type EnvState struct {
	Timeout           time.Duration
	TimeoutSet        bool
	Concurrency       int
	ConcurrencySet    bool
	Agent             string
	AgentSet          bool
	Model             string
	ModelSet          bool
	ExtractionTier    domain.Tier
	ExtractionTierSet bool
	Yolo              bool
	YoloSet           bool
	Reextract         bool
	ReextractSet      bool
	Prompt            string
	PromptSet         bool
	PromptFile        string
	PromptFileSet     bool
}

// Environment variable names.
const (
	EnvTimeout        = "REVIEWBRIDGE_TIMEOUT"
	EnvConcurrency    = "REVIEWBRIDGE_CONCURRENCY"
	EnvAgent          = "REVIEWBRIDGE_AGENT"
	EnvModel          = "REVIEWBRIDGE_MODEL"
	EnvExtractionTier = "REVIEWBRIDGE_EXTRACTION_TIER"
	EnvYolo           = "REVIEWBRIDGE_YOLO"
	EnvReextract      = "REVIEWBRIDGE_REEXTRACT"
	EnvPrompt         = "REVIEWBRIDGE_PROMPT"
	EnvPromptFile     = "REVIEWBRIDGE_PROMPT_FILE"
)

// LoadEnvState reads environment variables and returns their state. Values
// that fail to parse are ignored and reported as warnings.
func LoadEnvState() (EnvState, []string) {
	var state EnvState
	var warnings []string
	invalid := func(name, value, want string) {
		warnings = append(warnings, fmt.Sprintf("ignoring %s=%q: %s", name, value, want))
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			state.Timeout, state.TimeoutSet = d, true
		} else if secs, err := strconv.Atoi(v); err == nil {
			state.Timeout, state.TimeoutSet = time.Duration(secs)*time.Second, true
		} else {
			invalid(EnvTimeout, v, "want a duration like 5m or a number of seconds")
		}
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			state.Concurrency, state.ConcurrencySet = i, true
		} else {
			invalid(EnvConcurrency, v, "want an integer")
		}
	}
	if v := os.Getenv(EnvAgent); v != "" {
		state.Agent, state.AgentSet = v, true
	}
	if v := os.Getenv(EnvModel); v != "" {
		state.Model, state.ModelSet = v, true
	}
	if v := os.Getenv(EnvExtractionTier); v != "" {
		if tier, err := domain.ParseTier(v); err == nil {
			state.ExtractionTier, state.ExtractionTierSet = tier, true
		} else {
			invalid(EnvExtractionTier, v, "want fast, balanced or thorough")
		}
	}
	if v := os.Getenv(EnvYolo); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			state.Yolo, state.YoloSet = b, true
		} else {
			invalid(EnvYolo, v, "want true or false")
		}
	}
	if v := os.Getenv(EnvReextract); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			state.Reextract, state.ReextractSet = b, true
		} else {
			invalid(EnvReextract, v, "want true or false")
		}
	}
	if v := os.Getenv(EnvPrompt); v != "" {
		state.Prompt, state.PromptSet = v, true
	}
	if v := os.Getenv(EnvPromptFile); v != "" {
		state.PromptFile, state.PromptFileSet = v, true
	}

	return state, warnings
}

// Resolve merges config file values with env vars and flags.
// Precedence: flags > env vars > config file > defaults
func Resolve(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig) ResolvedConfig {
	result := Defaults

	if cfg != nil {
		if cfg.Timeout != nil {
			result.Timeout = cfg.Timeout.AsDuration()
		}
		if cfg.Concurrency != nil {
			result.Concurrency = *cfg.Concurrency
		}
		if cfg.Agent != nil {
			result.Agent = *cfg.Agent
		}
		if cfg.Model != nil {
			result.Model = *cfg.Model
		}
		if cfg.ExtractionTier != nil {
			result.ExtractionTier = domain.Tier(*cfg.ExtractionTier)
		}
		if cfg.Yolo != nil {
			result.Yolo = *cfg.Yolo
		}
		if cfg.Reextract != nil {
			result.Reextract = *cfg.Reextract
		}
		if cfg.Prompt != nil {
			result.Prompt = *cfg.Prompt
		}
		if cfg.PromptFile != nil {
			result.PromptFile = *cfg.PromptFile
		}
		result.Providers = cfg.Providers
	}

	if envState.TimeoutSet {
		result.Timeout = envState.Timeout
	}
	if envState.ConcurrencySet {
		result.Concurrency = envState.Concurrency
	}
	if envState.AgentSet {
		result.Agent = envState.Agent
	}
	if envState.ModelSet {
		result.Model = envState.Model
	}
	if envState.ExtractionTierSet {
		result.ExtractionTier = envState.ExtractionTier
	}
	if envState.YoloSet {
		result.Yolo = envState.Yolo
	}
	if envState.ReextractSet {
		result.Reextract = envState.Reextract
	}
	if envState.PromptSet {
		result.Prompt = envState.Prompt
	}
	if envState.PromptFileSet {
		result.PromptFile = envState.PromptFile
	}

	if flagState.TimeoutSet {
		result.Timeout = flagValues.Timeout
	}
	if flagState.ConcurrencySet {
		result.Concurrency = flagValues.Concurrency
	}
	if flagState.AgentSet {
		result.Agent = flagValues.Agent
	}
	if flagState.ModelSet {
		result.Model = flagValues.Model
	}
	if flagState.ExtractionTierSet {
		result.ExtractionTier = flagValues.ExtractionTier
	}
	if flagState.YoloSet {
		result.Yolo = flagValues.Yolo
	}
	if flagState.ReextractSet {
		result.Reextract = flagValues.Reextract
	}
	if flagState.PromptSet {
		result.Prompt = flagValues.Prompt
	}
	if flagState.PromptFileSet {
		result.PromptFile = flagValues.PromptFile
	}

	return result
}

// ResolvePrompt resolves the prompt text. Prompt strings and prompt files are
// checked per source, highest first:
//
//  1. --prompt flag
//  2. --prompt-file flag
//  3. REVIEWBRIDGE_PROMPT env var
//  4. REVIEWBRIDGE_PROMPT_FILE env var
//  5. prompt config field
//  6. prompt_file config field, relative to configDir
//
// Returns "" when nothing is configured so the caller can read stdin.
func ResolvePrompt(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig, configDir string) (string, error) {
	if flagState.PromptSet && flagValues.Prompt != "" {
		return flagValues.Prompt, nil
	}
	if flagState.PromptFileSet && flagValues.PromptFile != "" {
		return readPromptFile(flagValues.PromptFile)
	}
	if envState.PromptSet && envState.Prompt != "" {
		return envState.Prompt, nil
	}
	if envState.PromptFileSet && envState.PromptFile != "" {
		return readPromptFile(envState.PromptFile)
	}
	if cfg != nil && cfg.Prompt != nil && *cfg.Prompt != "" {
		return *cfg.Prompt, nil
	}
	if cfg != nil && cfg.PromptFile != nil && *cfg.PromptFile != "" {
		path := *cfg.PromptFile
		if configDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}
		return readPromptFile(path)
	}
	return "", nil
}

func readPromptFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %q: %w", path, err)
	}
	return string(content), nil
}

// Starter is the commented template written by 'reviewbridge config init'.
const Starter = `# reviewbridge configuration file

# Timeout per invocation, Go duration format (default: 10m)
# timeout: 10m

# Maximum concurrent invocations (default: one per target)
# concurrency: 0

# Target(s) to run: agent[:model], comma separated (claude, codex, gemini, pi)
# agent: claude

# Model for targets that do not name one (default: the CLI's own default)
# model: ""

# Extraction model tier: fast, balanced or thorough (default: fast)
# extraction_tier: fast

# Remove tool restrictions for every provider that does not set yolo itself
# yolo: false

# Retry failed JSON extraction through the extraction model
# reextract: false

# Prompt text, or a file relative to this config
# prompt: ""
# prompt_file: ""

# Per-provider overrides
# providers:
#   codex:
#     command: codex
#     extra_args: ["-c", "model_reasoning_effort=high"]
#     env:
#       OPENAI_BASE_URL: https://example.invalid/v1
#     extraction_model: gpt-5-mini
#     models:
#       - id: o3
#         extra_args: ["-c", "model_reasoning_summary=auto"]
#   pi:
#     yolo: true
`
