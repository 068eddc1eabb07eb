package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromPath_FullConfig(t *testing.T) {
	path := writeConfig(t, `timeout: 5m
concurrency: 2
agent: claude,codex:o3
model: sonnet
extraction_tier: balanced
yolo: true
reextract: true
prompt: "review the diff"
providers:
  codex:
    command: /opt/bin/codex
    extra_args: ["-c", "model_reasoning_effort=high"]
    env:
      OPENAI_BASE_URL: https://example.invalid/v1
    extraction_model: gpt-5-mini
    models:
      - id: o3
        extra_args: ["--search"]
  pi:
    yolo: false
`)

	result, err := LoadFromPathWithWarnings(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
	if result.Path != path || result.Dir() != filepath.Dir(path) {
		t.Errorf("Path = %q, Dir() = %q", result.Path, result.Dir())
	}

	cfg := result.Config
	if cfg.Timeout == nil || cfg.Timeout.AsDuration() != 5*time.Minute {
		t.Errorf("timeout = %v, want 5m", cfg.Timeout)
	}
	if cfg.Concurrency == nil || *cfg.Concurrency != 2 {
		t.Errorf("concurrency = %v, want 2", cfg.Concurrency)
	}
	if cfg.Agent == nil || *cfg.Agent != "claude,codex:o3" {
		t.Errorf("agent = %v", cfg.Agent)
	}
	if cfg.ExtractionTier == nil || *cfg.ExtractionTier != "balanced" {
		t.Errorf("extraction_tier = %v", cfg.ExtractionTier)
	}
	if cfg.Yolo == nil || !*cfg.Yolo {
		t.Errorf("yolo = %v, want true", cfg.Yolo)
	}

	codex := cfg.Providers["codex"]
	if codex == nil {
		t.Fatal("expected codex provider")
	}
	if codex.Command != "/opt/bin/codex" {
		t.Errorf("codex.command = %q", codex.Command)
	}
	if !slices.Equal(codex.ExtraArgs, []string{"-c", "model_reasoning_effort=high"}) {
		t.Errorf("codex.extra_args = %v", codex.ExtraArgs)
	}
	if codex.Env["OPENAI_BASE_URL"] != "https://example.invalid/v1" {
		t.Errorf("codex.env = %v", codex.Env)
	}
	if codex.ExtractionModel != "gpt-5-mini" {
		t.Errorf("codex.extraction_model = %q", codex.ExtractionModel)
	}
	if m := codex.Model("o3"); m == nil || !slices.Equal(m.ExtraArgs, []string{"--search"}) {
		t.Errorf("codex.models[o3] = %+v", m)
	}
	if pi := cfg.Providers["pi"]; pi == nil || pi.Yolo == nil || *pi.Yolo {
		t.Errorf("pi.yolo = %+v, want explicit false", pi)
	}
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	result, err := LoadFromPathWithWarnings("/nonexistent/path/.reviewbridge.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if result.Config == nil {
		t.Fatal("expected non-nil config")
	}
	if result.Path != "" || result.Dir() != "" {
		t.Errorf("expected no path for missing file, got %q", result.Path)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings for missing file, got: %v", result.Warnings)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	result, err := LoadFromDirWithWarnings(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Agent != nil {
		t.Errorf("expected empty config, got agent %q", *result.Config.Agent)
	}
}

func TestLoadFromPath_EmptyFile(t *testing.T) {
	result, err := LoadFromPathWithWarnings(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Timeout != nil || result.Config.Providers != nil {
		t.Errorf("expected empty config, got %+v", result.Config)
	}
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	_, err := LoadFromPathWithWarnings(writeConfig(t, "timeout: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"negative concurrency", "concurrency: -1", "concurrency must be >= 0"},
		{"zero timeout", "timeout: 0", "timeout must be > 0"},
		{"unknown agent", "agent: claude,copilot", "unsupported agent(s): copilot"},
		{"bad tier", "extraction_tier: turbo", "extraction_tier"},
		{"model without id", "providers:\n  codex:\n    models:\n      - extra_args: [-x]", "providers.codex.models[0]: id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromPathWithWarnings(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWithWarnings_SearchesWorkingDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("agent: gemini\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	result, err := LoadWithWarnings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Agent == nil || *result.Config.Agent != "gemini" {
		t.Errorf("agent = %v, want gemini", result.Config.Agent)
	}
}

func TestLoadWithWarnings_FallsBackToHome(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, ".config", "reviewbridge", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("agent: pi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())
	t.Setenv("HOME", home)

	result, err := LoadWithWarnings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Path != path {
		t.Errorf("Path = %q, want %q", result.Path, path)
	}
	if result.Config.Agent == nil || *result.Config.Agent != "pi" {
		t.Errorf("agent = %v, want pi", result.Config.Agent)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected time.Duration
		wantErr  bool
	}{
		{"duration string 5m", "timeout: 5m", 5 * time.Minute, false},
		{"duration string 300s", "timeout: 300s", 5 * time.Minute, false},
		{"duration string 1h30m", "timeout: 1h30m", 90 * time.Minute, false},
		{"integer seconds", "timeout: 300", 5 * time.Minute, false},
		{"fractional seconds", "timeout: 1.5", 1500 * time.Millisecond, false},
		{"invalid string", "timeout: invalid", 0, true},
		{"invalid type", "timeout: [1]", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg struct {
				Timeout *Duration `yaml:"timeout"`
			}
			err := yaml.Unmarshal([]byte(tt.yaml), &cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Timeout == nil {
				t.Fatal("expected timeout to be set")
			}
			if cfg.Timeout.AsDuration() != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, cfg.Timeout.AsDuration())
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"all nil valid", Config{}, false},
		{"concurrency zero valid", Config{Concurrency: ptr(0)}, false},
		{"concurrency negative", Config{Concurrency: ptr(-1)}, true},
		{"timeout negative", Config{Timeout: durationPtr(-time.Second)}, true},
		{"timeout zero", Config{Timeout: durationPtr(0)}, true},
		{"agent list valid", Config{Agent: strPtr("claude, pi:anthropic/claude-sonnet-4-5")}, false},
		{"agent unknown", Config{Agent: strPtr("claude,aider")}, true},
		{"tier valid", Config{ExtractionTier: strPtr("thorough")}, false},
		{"tier invalid", Config{ExtractionTier: strPtr("slow")}, true},
		{"nil provider ignored", Config{Providers: map[string]*domain.ProviderConfig{"codex": nil}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvState(t *testing.T) {
	t.Setenv(EnvTimeout, "90")
	t.Setenv(EnvConcurrency, "3")
	t.Setenv(EnvAgent, "codex,gemini")
	t.Setenv(EnvModel, "o3")
	t.Setenv(EnvExtractionTier, "thorough")
	t.Setenv(EnvYolo, "true")
	t.Setenv(EnvReextract, "1")
	t.Setenv(EnvPrompt, "hello")
	t.Setenv(EnvPromptFile, "/tmp/p.md")

	state, warnings := LoadEnvState()

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if !state.TimeoutSet || state.Timeout != 90*time.Second {
		t.Errorf("timeout = %v (set=%t)", state.Timeout, state.TimeoutSet)
	}
	if !state.ConcurrencySet || state.Concurrency != 3 {
		t.Errorf("concurrency = %d (set=%t)", state.Concurrency, state.ConcurrencySet)
	}
	if !state.AgentSet || state.Agent != "codex,gemini" {
		t.Errorf("agent = %q", state.Agent)
	}
	if !state.ModelSet || state.Model != "o3" {
		t.Errorf("model = %q", state.Model)
	}
	if !state.ExtractionTierSet || state.ExtractionTier != domain.TierThorough {
		t.Errorf("tier = %q", state.ExtractionTier)
	}
	if !state.YoloSet || !state.Yolo {
		t.Error("expected yolo set")
	}
	if !state.ReextractSet || !state.Reextract {
		t.Error("expected reextract set")
	}
	if !state.PromptSet || state.Prompt != "hello" || !state.PromptFileSet || state.PromptFile != "/tmp/p.md" {
		t.Errorf("prompt = %q, prompt file = %q", state.Prompt, state.PromptFile)
	}
}

func TestLoadEnvState_DurationString(t *testing.T) {
	t.Setenv(EnvTimeout, "2m30s")

	state, _ := LoadEnvState()

	if state.Timeout != 150*time.Second {
		t.Errorf("timeout = %v, want 2m30s", state.Timeout)
	}
}

func TestLoadEnvState_InvalidValuesWarn(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	t.Setenv(EnvConcurrency, "many")
	t.Setenv(EnvExtractionTier, "ludicrous")
	t.Setenv(EnvYolo, "maybe")
	t.Setenv(EnvReextract, "perhaps")

	state, warnings := LoadEnvState()

	if len(warnings) != 5 {
		t.Fatalf("expected 5 warnings, got %d: %v", len(warnings), warnings)
	}
	for _, name := range []string{EnvTimeout, EnvConcurrency, EnvExtractionTier, EnvYolo, EnvReextract} {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, name) {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a warning naming %s", name)
		}
	}
	if state.TimeoutSet || state.ConcurrencySet || state.ExtractionTierSet || state.YoloSet || state.ReextractSet {
		t.Errorf("invalid values must not be marked set: %+v", state)
	}
}

func TestResolve_DefaultsUsedWhenNothingSet(t *testing.T) {
	result := Resolve(nil, EnvState{}, FlagState{}, ResolvedConfig{})

	if result.Timeout != Defaults.Timeout {
		t.Errorf("timeout = %v, want %v", result.Timeout, Defaults.Timeout)
	}
	if result.Agent != agent.DefaultAgent {
		t.Errorf("agent = %q, want %q", result.Agent, agent.DefaultAgent)
	}
	if result.ExtractionTier != domain.TierFast {
		t.Errorf("tier = %q, want fast", result.ExtractionTier)
	}
	if result.Yolo || result.Reextract || result.Concurrency != 0 {
		t.Errorf("unexpected non-default values: %+v", result)
	}
}

func TestResolve_Precedence(t *testing.T) {
	cfg := &Config{
		Timeout:     durationPtr(time.Minute),
		Concurrency: ptr(1),
		Agent:       strPtr("gemini"),
		Model:       strPtr("from-config"),
	}
	env := EnvState{
		Timeout: 2 * time.Minute, TimeoutSet: true,
		Agent: "codex", AgentSet: true,
	}
	flags := FlagState{AgentSet: true}
	values := ResolvedConfig{Agent: "pi", Timeout: time.Hour}

	result := Resolve(cfg, env, flags, values)

	if result.Agent != "pi" {
		t.Errorf("agent = %q, want flag value pi", result.Agent)
	}
	if result.Timeout != 2*time.Minute {
		t.Errorf("timeout = %v, want env value 2m (flag not set)", result.Timeout)
	}
	if result.Concurrency != 1 {
		t.Errorf("concurrency = %d, want config value 1", result.Concurrency)
	}
	if result.Model != "from-config" {
		t.Errorf("model = %q, want config value", result.Model)
	}
}

func TestResolve_FlagFalseOverridesEnvTrue(t *testing.T) {
	env := EnvState{Yolo: true, YoloSet: true}

	result := Resolve(&Config{Yolo: boolPtr(true)}, env, FlagState{YoloSet: true}, ResolvedConfig{Yolo: false})

	if result.Yolo {
		t.Error("explicit --yolo=false must win")
	}
}

func TestResolvedConfig_Targets(t *testing.T) {
	r := ResolvedConfig{Agent: "claude, codex:o3", Model: "sonnet"}

	got := r.Targets()
	want := []agent.Target{{Agent: "claude", Model: "sonnet"}, {Agent: "codex", Model: "o3"}}
	if !slices.Equal(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
}

func TestResolvedConfig_Provider(t *testing.T) {
	providers := map[string]*domain.ProviderConfig{
		"codex": {Command: "my-codex"},
		"pi":    {Yolo: boolPtr(false)},
	}

	t.Run("global yolo fills unset provider", func(t *testing.T) {
		r := ResolvedConfig{Yolo: true, Providers: providers}

		codex := r.Provider("codex")
		if !codex.IsYolo() || codex.Command != "my-codex" {
			t.Errorf("codex = %+v", codex)
		}
		if providers["codex"].Yolo != nil {
			t.Error("Provider must not modify the source config")
		}
	})

	t.Run("provider setting wins", func(t *testing.T) {
		r := ResolvedConfig{Yolo: true, Providers: providers}

		if r.Provider("pi").IsYolo() {
			t.Error("pi sets yolo: false and must stay restricted")
		}
	})

	t.Run("missing provider is never nil", func(t *testing.T) {
		r := ResolvedConfig{}

		p := r.Provider("gemini")
		if p == nil || p.IsYolo() {
			t.Errorf("Provider(gemini) = %+v", p)
		}
	})

	t.Run("all supported agents", func(t *testing.T) {
		r := ResolvedConfig{Yolo: true, Providers: providers}

		all := r.ProviderConfigs()
		for _, name := range agent.SupportedAgents {
			if all[name] == nil {
				t.Errorf("missing provider %s", name)
			}
		}
		if !all["claude"].IsYolo() || all["pi"].IsYolo() {
			t.Errorf("yolo not applied as expected: claude=%t pi=%t", all["claude"].IsYolo(), all["pi"].IsYolo())
		}
	})
}

func TestResolvedConfig_ValidateAll(t *testing.T) {
	bad := ResolvedConfig{Timeout: 0, Concurrency: -2, Agent: "nope", ExtractionTier: "warp"}
	if errs := bad.ValidateAll(); len(errs) != 4 {
		t.Errorf("expected 4 errors, got %d: %v", len(errs), errs)
	}

	if errs := Defaults.ValidateAll(); len(errs) != 0 {
		t.Errorf("defaults must be valid, got %v", errs)
	}
}

func TestResolvePrompt(t *testing.T) {
	dir := t.TempDir()
	flagFile := filepath.Join(dir, "flag.md")
	envFile := filepath.Join(dir, "env.md")
	if err := os.WriteFile(flagFile, []byte("from flag file"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(envFile, []byte("from env file"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cfg.md"), []byte("from config file"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		cfg    *Config
		env    EnvState
		flags  FlagState
		values ResolvedConfig
		want   string
	}{
		{
			name:   "flag prompt wins",
			cfg:    &Config{Prompt: strPtr("from config")},
			env:    EnvState{Prompt: "from env", PromptSet: true},
			flags:  FlagState{PromptSet: true, PromptFileSet: true},
			values: ResolvedConfig{Prompt: "from flag", PromptFile: flagFile},
			want:   "from flag",
		},
		{
			name:   "flag file beats env",
			env:    EnvState{Prompt: "from env", PromptSet: true},
			flags:  FlagState{PromptFileSet: true},
			values: ResolvedConfig{PromptFile: flagFile},
			want:   "from flag file",
		},
		{
			name: "env prompt beats env file",
			env:  EnvState{Prompt: "from env", PromptSet: true, PromptFile: envFile, PromptFileSet: true},
			want: "from env",
		},
		{
			name: "env file beats config",
			cfg:  &Config{Prompt: strPtr("from config")},
			env:  EnvState{PromptFile: envFile, PromptFileSet: true},
			want: "from env file",
		},
		{
			name: "config prompt",
			cfg:  &Config{Prompt: strPtr("from config"), PromptFile: strPtr("cfg.md")},
			want: "from config",
		},
		{
			name: "config file relative to config dir",
			cfg:  &Config{PromptFile: strPtr("cfg.md")},
			want: "from config file",
		},
		{
			name: "nothing configured",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePrompt(tt.cfg, tt.env, tt.flags, tt.values, dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolvePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePrompt_MissingFile(t *testing.T) {
	_, err := ResolvePrompt(nil, EnvState{}, FlagState{PromptFileSet: true}, ResolvedConfig{PromptFile: "/nonexistent/prompt.md"}, "")
	if err == nil || !strings.Contains(err.Error(), "failed to read prompt file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoadFromPathWithWarnings_UnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "top level with suggestion",
			content: "tiemout: 5m\n",
			want:    []string{`unknown key "tiemout" in .reviewbridge.yaml (did you mean "timeout"?)`},
		},
		{
			name:    "top level without suggestion",
			content: "totally_unknown_key: 1\n",
			want:    []string{`unknown key "totally_unknown_key" in .reviewbridge.yaml`},
		},
		{
			name:    "unknown provider name",
			content: "providers:\n  claud:\n    command: x\n",
			want:    []string{`unknown key "claud" in providers section of .reviewbridge.yaml (did you mean "claude"?)`},
		},
		{
			name:    "unknown provider key",
			content: "providers:\n  codex:\n    comand: x\n",
			want:    []string{`unknown key "comand" in providers.codex of .reviewbridge.yaml (did you mean "command"?)`},
		},
		{
			name:    "unknown model key",
			content: "providers:\n  codex:\n    models:\n      - id: o3\n        args: [x]\n",
			want:    []string{`unknown key "args" in providers.codex.models[0] of .reviewbridge.yaml`},
		},
		{
			name:    "multiple sorted",
			content: "zzz_unknown: 1\naaa_unknown: 2\n",
			want: []string{
				`unknown key "aaa_unknown" in .reviewbridge.yaml`,
				`unknown key "zzz_unknown" in .reviewbridge.yaml`,
			},
		},
		{
			name:    "valid config has none",
			content: "agent: claude\nproviders:\n  claude:\n    yolo: true\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := LoadFromPathWithWarnings(writeConfig(t, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(result.Warnings, tt.want) {
				t.Errorf("warnings = %q, want %q", result.Warnings, tt.want)
			}
		})
	}
}

func TestStarter_ParsesCleanly(t *testing.T) {
	result, err := LoadFromPathWithWarnings(writeConfig(t, Starter))
	if err != nil {
		t.Fatalf("starter config must load: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("starter config produced warnings: %v", result.Warnings)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "abcd", 1},
		{"providers", "provders", 1},
		{"extraction_tier", "extraction_teir", 2},
		{"timeout", "tiemout", 2},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got := levenshtein(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("levenshtein(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestFindSimilar(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"provders", "providers"},
		{"concurency", "concurrency"},
		{"tiemout", "timeout"},
		{"totally_unrelated_name", ""},
		{"agent", "agent"}, // exact match
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := findSimilar(tt.input, knownTopLevelKeys)
			if got != tt.expected {
				t.Errorf("findSimilar(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

// Helper functions
func ptr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func durationPtr(d time.Duration) *Duration {
	dur := Duration(d)
	return &dur
}
