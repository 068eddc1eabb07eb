package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/config"
	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/runner"
	"github.com/richhaase/reviewbridge/internal/stream"
	"github.com/richhaase/reviewbridge/internal/terminal"
)

// runOptions holds the run command's flag values. Values that participate in
// config resolution are only applied when the flag was changed.
type runOptions struct {
	agent          string
	model          string
	prompt         string
	promptFile     string
	cwd            string
	yolo           bool
	timeout        time.Duration
	concurrency    int
	extractionTier string
	reextract      bool
	selectTargets  bool
	jsonOutput     bool
	quiet          bool
	verbose        bool
	noConfig       bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or more agents on a prompt and extract their JSON answers",
		Long: `Run each target agent on the prompt, print its progress events to stderr as
they arrive and write one extracted result per target to stdout, in target order.

The prompt comes from --prompt, --prompt-file, REVIEWBRIDGE_PROMPT(_FILE), the
config file, or stdin, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgents(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.agent, "agent", "a", "",
		"Target(s) as agent[:model], comma-separated: claude, codex, gemini, pi (default: claude, env: REVIEWBRIDGE_AGENT)")
	f.StringVarP(&opts.model, "model", "m", "",
		"Model for targets that do not name one (env: REVIEWBRIDGE_MODEL)")
	f.BoolVar(&opts.selectTargets, "select", false,
		"Probe the targets and pick which to run interactively")
	f.BoolVar(&opts.yolo, "yolo", false,
		"Remove agent tool restrictions (env: REVIEWBRIDGE_YOLO)")
	f.StringVarP(&opts.prompt, "prompt", "p", "",
		"Prompt text (env: REVIEWBRIDGE_PROMPT)")
	f.StringVarP(&opts.promptFile, "prompt-file", "f", "",
		"Path to a file containing the prompt (env: REVIEWBRIDGE_PROMPT_FILE)")
	f.StringVar(&opts.cwd, "cwd", "",
		"Working directory for the agents (default: current directory)")
	f.DurationVarP(&opts.timeout, "timeout", "t", 0,
		"Timeout per invocation (default: 10m, env: REVIEWBRIDGE_TIMEOUT)")
	f.IntVarP(&opts.concurrency, "concurrency", "c", 0,
		"Max concurrent invocations (default: one per target, env: REVIEWBRIDGE_CONCURRENCY)")
	f.StringVar(&opts.extractionTier, "extraction-tier", "",
		"Extraction model tier: fast, balanced, thorough (default: fast, env: REVIEWBRIDGE_EXTRACTION_TIER)")
	f.BoolVar(&opts.reextract, "reextract", false,
		"Retry failed JSON extraction through the agent's extraction model (env: REVIEWBRIDGE_REEXTRACT)")
	f.BoolVar(&opts.jsonOutput, "json", false,
		"Write full run results as a JSON array instead of one result per line")
	f.BoolVarP(&opts.quiet, "quiet", "q", false,
		"Show a progress spinner instead of live agent events")
	f.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Log malformed protocol lines")
	f.BoolVar(&opts.noConfig, "no-config", false,
		"Skip loading the config file")

	setGroupedUsage(cmd, runFlagGroups)

	return cmd
}

func (o *runOptions) flagState(cmd *cobra.Command) config.FlagState {
	f := cmd.Flags()
	return config.FlagState{
		TimeoutSet:        f.Changed("timeout"),
		ConcurrencySet:    f.Changed("concurrency"),
		AgentSet:          f.Changed("agent"),
		ModelSet:          f.Changed("model"),
		ExtractionTierSet: f.Changed("extraction-tier"),
		YoloSet:           f.Changed("yolo"),
		ReextractSet:      f.Changed("reextract"),
		PromptSet:         f.Changed("prompt"),
		PromptFileSet:     f.Changed("prompt-file"),
	}
}

func (o *runOptions) flagValues() config.ResolvedConfig {
	return config.ResolvedConfig{
		Timeout:        o.timeout,
		Concurrency:    o.concurrency,
		Agent:          o.agent,
		Model:          o.model,
		ExtractionTier: domain.Tier(o.extractionTier),
		Yolo:           o.yolo,
		Reextract:      o.reextract,
		Prompt:         o.prompt,
		PromptFile:     o.promptFile,
	}
}

func runAgents(cmd *cobra.Command, opts *runOptions) error {
	logger := newCmdLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	flagState := opts.flagState(cmd)
	flagValues := opts.flagValues()

	resolved, loaded, envState, err := loadResolved(logger, opts.noConfig, flagState, flagValues)
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}
	if errs := resolved.ValidateAll(); len(errs) > 0 {
		for _, e := range errs {
			logger.Logf(terminal.StyleError, "%s", e)
		}
		return exitCode(domain.ExitError)
	}

	prompt, err := resolveRunPrompt(cmd, loaded, envState, flagState, flagValues)
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	workDir, err := resolveWorkDir(opts.cwd)
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	r := runner.New(runner.Config{
		Concurrency:    resolved.Concurrency,
		Timeout:        resolved.Timeout,
		WorkDir:        workDir,
		Providers:      resolved.ProviderConfigs(),
		ExtractionTier: resolved.ExtractionTier,
		Reextract:      resolved.Reextract,
		Verbose:        opts.verbose,
	}, logger)

	targets := resolved.Targets()
	if opts.selectTargets {
		selected, err := selectTargets(ctx, r, targets)
		if err != nil {
			logger.Logf(terminal.StyleError, "%v", err)
			return exitCode(domain.ExitError)
		}
		if selected == nil {
			logger.Log("Selection cancelled", terminal.StyleWarning)
			return exitCode(domain.ExitInterrupted)
		}
		if len(selected) == 0 {
			logger.Log("No targets selected", terminal.StyleWarning)
			return exitCode(domain.ExitNoResult)
		}
		targets = selected
	}

	logger.Logf(terminal.StylePhase, "Running %s%s%s",
		terminal.Color(terminal.Bold), agent.FormatDistribution(targets), terminal.Color(terminal.Reset))

	printer := terminal.NewEventPrinter(cmd.ErrOrStderr())
	var sink runner.EventSink
	if !opts.quiet {
		sink = func(_ string, target agent.Target, ev stream.Event) {
			printer.Print(target.String(), ev)
		}
	}

	results, wall := r.RunAll(ctx, targets, prompt, sink)

	if ctx.Err() != nil {
		return exitCode(domain.ExitInterrupted)
	}

	reportResults(printer, logger, results, wall)

	if err := writeResults(cmd, results, opts.jsonOutput); err != nil {
		logger.Logf(terminal.StyleError, "Failed to write results: %v", err)
		return exitCode(domain.ExitError)
	}

	stats := domain.Stats(results, wall)
	if stats.Succeeded < stats.Total {
		return exitCode(domain.ExitNoResult)
	}
	return exitCode(domain.ExitOK)
}

// resolveRunPrompt resolves the prompt from flags, env and config, falling
// back to piped stdin.
func resolveRunPrompt(cmd *cobra.Command, loaded *config.LoadResult, envState config.EnvState, flagState config.FlagState, flagValues config.ResolvedConfig) (string, error) {
	prompt, err := config.ResolvePrompt(loaded.Config, envState, flagState, flagValues, loaded.Dir())
	if err != nil {
		return "", err
	}
	if prompt == "" {
		if cmd.InOrStdin() == os.Stdin && terminal.IsStdinTTY() {
			return "", errors.New("no prompt: use --prompt, --prompt-file or pipe one on stdin")
		}
		if prompt, err = readInput(cmd, "-"); err != nil {
			return "", err
		}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}
	return prompt, nil
}

func resolveWorkDir(cwd string) (string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("invalid --cwd %q: %w", cwd, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("invalid --cwd %q: %w", cwd, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("invalid --cwd %q: not a directory", cwd)
	}
	return abs, nil
}

// selectTargets probes the targets' agents and lets the user choose which
// available targets to run. A nil result means the user quit.
func selectTargets(ctx context.Context, r *runner.Runner, targets []agent.Target) ([]agent.Target, error) {
	var names []string
	seen := make(map[string]bool)
	for _, t := range targets {
		if !seen[t.Agent] {
			seen[t.Agent] = true
			names = append(names, t.Agent)
		}
	}

	probes := make(map[string]runner.ProbeResult, len(names))
	for _, p := range probeWithSpinner(ctx, r, names) {
		probes[p.Agent] = p
	}

	items := make([]terminal.SelectorItem, len(targets))
	for i, t := range targets {
		p := probes[t.Agent]
		detail := p.Command
		if !p.Available {
			detail = p.Error
		}
		items[i] = terminal.SelectorItem{Label: t.String(), Detail: detail, Disabled: !p.Available}
	}

	indices, err := terminal.RunSelector(items)
	if err != nil || indices == nil {
		return nil, err
	}

	selected := make([]agent.Target, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, targets[i])
	}
	return selected, nil
}

// stderrTailLen bounds the stderr excerpt shown under a failed run.
const stderrTailLen = 240

func reportResults(printer *terminal.EventPrinter, logger *terminal.Logger, results []domain.RunResult, wall time.Duration) {
	printer.Rule()

	for _, res := range results {
		label := agent.Target{Agent: res.AgentName, Model: res.Model}.String()
		switch {
		case res.OK():
			logger.Logf(terminal.StyleSuccess, "%s %s(%s, %d events)%s",
				label, terminal.Color(terminal.Dim), terminal.FormatDuration(res.Duration), res.Events, terminal.Color(terminal.Reset))
		case res.TimedOut:
			logger.Logf(terminal.StyleWarning, "%s timed out after %s", label, terminal.FormatDuration(res.Duration))
		default:
			reason := res.Err
			if reason == "" {
				reason = res.Result.Error
			}
			logger.Logf(terminal.StyleError, "%s: %s %s(exit %d)%s",
				label, reason, terminal.Color(terminal.Dim), res.ExitCode, terminal.Color(terminal.Reset))
			printer.Detail(stderrTail(res.Stderr))
		}
	}

	stats := domain.Stats(results, wall)
	style := terminal.StyleSuccess
	if stats.Succeeded < stats.Total {
		style = terminal.StyleWarning
	}
	logger.Logf(style, "%d/%d succeeded in %s", stats.Succeeded, stats.Total, terminal.FormatDuration(wall))
}

// stderrTail returns the last non-blank stderr line, truncated.
func stderrTail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return stream.TruncateSnippet(line, stderrTailLen)
		}
	}
	return ""
}

// writeResults writes one ParseResult per line, or every RunResult as a JSON
// array in JSON mode.
func writeResults(cmd *cobra.Command, results []domain.RunResult, full bool) error {
	out := cmd.OutOrStdout()
	if full {
		return writeJSON(out, results)
	}
	enc := json.NewEncoder(out)
	for _, res := range results {
		if err := enc.Encode(res.Result); err != nil {
			return err
		}
	}
	return nil
}
