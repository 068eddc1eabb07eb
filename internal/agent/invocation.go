package agent

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/richhaase/reviewbridge/internal/domain"
)

// TaskDepthEnv is set on every agent subprocess so a nested reviewbridge call
// made by the agent itself can tell it is already inside a review.
const TaskDepthEnv = "REVIEWBRIDGE_TASK_DEPTH"

// commonFixedEnv applies to every agent and overrides provider/model env.
var commonFixedEnv = map[string]string{
	TaskDepthEnv: "1",
}

// Invocation is the fully resolved command line and environment for one
// agentic run. When UseShell is set, Command is a shell snippet and the
// arguments are appended to it as one quoted string (see ShellCommand).
type Invocation struct {
	Agent          string            `json:"agent"`
	Model          string            `json:"model,omitempty"`
	Command        string            `json:"command"`
	Args           []string          `json:"args"`
	UseShell       bool              `json:"use_shell"`
	PromptViaStdin bool              `json:"prompt_via_stdin"`
	Env            map[string]string `json:"env"`
}

// ShellCommand renders the invocation as a single shell command string.
func (inv *Invocation) ShellCommand() string {
	return ShellJoin(inv.Command, inv.Args)
}

// CommandLine returns the executable and argv to hand to exec.
func (inv *Invocation) CommandLine() (string, []string) {
	return commandLine(inv.Command, inv.Args, inv.UseShell)
}

// commandLine converts a resolved command and args into an exec-ready pair.
// Shell mode runs "sh -c <command + quoted args>".
func commandLine(command string, args []string, useShell bool) (string, []string) {
	if useShell {
		return "sh", []string{"-c", ShellJoin(command, args)}
	}
	return command, slices.Clone(args)
}

// ResolveCommand picks the executable: the envVar override, then cfg.Command,
// then the built-in default.
func ResolveCommand(envVar string, cfg *domain.ProviderConfig, defaultCommand string) string {
	if envVar != "" {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			return v
		}
	}
	if cfg != nil {
		if v := strings.TrimSpace(cfg.Command); v != "" {
			return v
		}
	}
	return defaultCommand
}

// NeedsShell reports whether command is a compound shell command rather than
// a bare executable path.
func NeedsShell(command string) bool {
	return strings.ContainsAny(command, " \t\n\r")
}

// shellMetaChars are the characters that force an argument to be quoted.
const shellMetaChars = " \t\n\r(),'\"$`\\;&|<>*?[]{}#~!"

// ShellQuote single-quotes arg when it contains shell metacharacters.
func ShellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, shellMetaChars) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// ShellJoin appends args to command as individually quoted words. The command
// itself is left verbatim since it is already shell syntax.
func ShellJoin(command string, args []string) string {
	var b strings.Builder
	b.WriteString(command)
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(ShellQuote(arg))
	}
	return b.String()
}

// MergeArgs returns base followed by the provider extra args and then the
// extra args of the selected model. Repeated flags are kept.
func MergeArgs(base []string, cfg *domain.ProviderConfig, model string) []string {
	args := slices.Clone(base)
	if cfg == nil {
		return args
	}
	args = append(args, cfg.ExtraArgs...)
	if m := cfg.Model(model); m != nil {
		args = append(args, m.ExtraArgs...)
	}
	return args
}

// MergeEnv layers provider env, then model env, then fixed. The inputs are
// never modified.
func MergeEnv(cfg *domain.ProviderConfig, model string, fixed map[string]string) map[string]string {
	env := make(map[string]string)
	if cfg != nil {
		maps.Copy(env, cfg.Env)
		if m := cfg.Model(model); m != nil {
			maps.Copy(env, m.Env)
		}
	}
	maps.Copy(env, fixed)
	return env
}

// EnvList renders env as sorted KEY=VALUE pairs.
func EnvList(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// vendorCLI holds the static facts about one vendor CLI.
type vendorCLI struct {
	name           string
	defaultCommand string
	commandEnv     string
	pseudoModels   []string
	tierModels     map[domain.Tier]string
	fixedEnv       map[string]string
}

// Name returns the agent's identifier.
func (s *vendorCLI) Name() string {
	return s.name
}

// IsAvailable checks that the resolved command can be found. Shell commands
// are checked by their first word.
func (s *vendorCLI) IsAvailable(cfg *domain.ProviderConfig) error {
	command := s.resolveCommand(cfg)
	if fields := strings.Fields(command); len(fields) > 0 {
		command = fields[0]
	}
	if err := checkCommand(command); err != nil {
		return fmt.Errorf("%s CLI not found: %w", s.name, err)
	}
	return nil
}

func (s *vendorCLI) resolveCommand(cfg *domain.ProviderConfig) string {
	return ResolveCommand(s.commandEnv, cfg, s.defaultCommand)
}

// selectsModel reports whether model should be passed to the CLI at all.
func (s *vendorCLI) selectsModel(model string) bool {
	return model != "" && !slices.Contains(s.pseudoModels, model)
}

// extractionModel returns the configured override or the tier table entry.
func (s *vendorCLI) extractionModel(tier domain.Tier, cfg *domain.ProviderConfig) string {
	if cfg != nil && cfg.ExtractionModel != "" {
		return cfg.ExtractionModel
	}
	if m, ok := s.tierModels[tier]; ok {
		return m
	}
	return s.tierModels[domain.TierFast]
}

func (s *vendorCLI) env(cfg *domain.ProviderConfig, model string) map[string]string {
	fixed := maps.Clone(commonFixedEnv)
	maps.Copy(fixed, s.fixedEnv)
	return MergeEnv(cfg, model, fixed)
}

// newInvocation assembles an Invocation from the agent's base flags. trailing
// is appended after every extra arg (positional markers such as "-").
func (s *vendorCLI) newInvocation(model string, cfg *domain.ProviderConfig, base, trailing []string) *Invocation {
	command := s.resolveCommand(cfg)
	args := MergeArgs(base, cfg, model)
	args = append(args, trailing...)
	return &Invocation{
		Agent:          s.name,
		Model:          model,
		Command:        command,
		Args:           args,
		UseShell:       NeedsShell(command),
		PromptViaStdin: true,
		Env:            s.env(cfg, model),
	}
}

// newExtractionConfig is the extraction-only counterpart of newInvocation.
func (s *vendorCLI) newExtractionConfig(model string, cfg *domain.ProviderConfig, base, trailing []string) domain.ExtractionConfig {
	inv := s.newInvocation(model, cfg, base, trailing)
	return domain.ExtractionConfig{
		Command:        inv.Command,
		Args:           inv.Args,
		UseShell:       inv.UseShell,
		PromptViaStdin: true,
		Env:            inv.Env,
		Model:          model,
	}
}
