// Package runner drives agent invocations end to end: spawn, stream, normalize
// and extract.
package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
	"github.com/richhaase/reviewbridge/internal/terminal"
)

// maxReextractInput caps how much of a failed transcript is sent back to a
// model for re-extraction. The tail is kept.
const maxReextractInput = 64 * 1024

// Config holds the runner configuration.
type Config struct {
	// Concurrency bounds RunAll. Zero or less means one slot per target.
	Concurrency int
	// Timeout bounds each invocation. Zero disables the bound.
	Timeout time.Duration
	// WorkDir is the subprocess working directory and the prefix stripped
	// from paths in tool summaries.
	WorkDir string
	// Providers holds per-agent configuration keyed by agent name.
	Providers map[string]*domain.ProviderConfig
	// ExtractionTier selects the model for RunExtraction and re-extraction.
	ExtractionTier domain.Tier
	// Reextract retries a failed extraction through the agent's extraction
	// model.
	Reextract bool
	Verbose   bool
}

// EventSink receives every normalized event of a run in arrival order. RunAll
// calls it from several goroutines, so sinks shared across runs must be safe
// for concurrent use.
type EventSink func(id string, target agent.Target, ev stream.Event)

// Runner executes agent invocations.
type Runner struct {
	config Config
	logger *terminal.Logger
}

// New creates a new runner.
func New(config Config, logger *terminal.Logger) *Runner {
	if logger == nil {
		logger = terminal.NewLogger()
	}
	return &Runner{
		config: config,
		logger: logger,
	}
}

// Provider returns the configuration for the named agent, or nil.
func (r *Runner) Provider(name string) *domain.ProviderConfig {
	return r.config.Providers[name]
}

// Run executes one target with prompt and returns its outcome. Events reach
// sink as lines complete; the result is extracted once from the whole
// transcript after the process exits.
func (r *Runner) Run(ctx context.Context, target agent.Target, prompt string, sink EventSink) domain.RunResult {
	start := time.Now()
	result := domain.RunResult{
		InvocationID: uuid.NewString(),
		AgentName:    target.Agent,
		Model:        target.Model,
	}

	a, err := agent.NewAgent(target.Agent)
	if err != nil {
		return failed(result, start, err)
	}
	inv, err := a.BuildInvocation(target.Model, r.Provider(target.Agent))
	if err != nil {
		return failed(result, start, err)
	}

	result = r.execute(ctx, a, inv, target, prompt, sink, result)

	if !result.Result.Success && r.config.Reextract && result.Err == "" && !result.TimedOut {
		r.reextract(ctx, a, &result)
	}

	result.Duration = time.Since(start)
	return result
}

// RunAll executes every target concurrently, bounded by Concurrency. Results
// are returned in target order along with the wall-clock duration.
func (r *Runner) RunAll(ctx context.Context, targets []agent.Target, prompt string, sink EventSink) ([]domain.RunResult, time.Duration) {
	start := time.Now()
	results := make([]domain.RunResult, len(targets))
	if len(targets) == 0 {
		return results, 0
	}

	completed := &atomic.Int32{}
	var spinnerCancel context.CancelFunc
	spinnerDone := make(chan struct{})
	if sink == nil {
		// The spinner only runs when no events are streamed.
		spinner := terminal.NewSpinner(len(targets))
		completed = spinner.Completed()
		var spinnerCtx context.Context
		spinnerCtx, spinnerCancel = context.WithCancel(context.Background())
		go func() {
			spinner.Run(spinnerCtx)
			close(spinnerDone)
		}()
	} else {
		close(spinnerDone)
	}

	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = len(targets)
	}
	sem := make(chan struct{}, concurrency)

	done := make(chan struct{}, len(targets))
	for i, target := range targets {
		go func(i int, target agent.Target) {
			defer func() { done <- struct{}{} }()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = failed(domain.RunResult{
					InvocationID: uuid.NewString(),
					AgentName:    target.Agent,
					Model:        target.Model,
				}, time.Now(), ctx.Err())
				return
			}

			results[i] = r.Run(ctx, target, prompt, sink)
			<-sem
			completed.Add(1)
		}(i, target)
	}

	for range targets {
		<-done
	}

	if spinnerCancel != nil {
		spinnerCancel()
	}
	<-spinnerDone

	return results, time.Since(start)
}

// RunExtraction runs the named agent's lightweight extraction call for tier
// and extracts its answer. No events are surfaced.
func (r *Runner) RunExtraction(ctx context.Context, agentName string, tier domain.Tier, prompt string) domain.RunResult {
	start := time.Now()
	result := domain.RunResult{
		InvocationID: uuid.NewString(),
		AgentName:    agentName,
	}

	a, err := agent.NewAgent(agentName)
	if err != nil {
		return failed(result, start, err)
	}
	cfg := a.BuildExtractionConfig(tier, r.Provider(agentName))
	result.Model = cfg.Model

	inv := &agent.Invocation{
		Agent:          agentName,
		Model:          cfg.Model,
		Command:        cfg.Command,
		Args:           cfg.Args,
		UseShell:       cfg.UseShell,
		PromptViaStdin: cfg.PromptViaStdin,
		Env:            cfg.Env,
	}
	result = r.execute(ctx, a, inv, agent.Target{Agent: agentName, Model: cfg.Model}, prompt, nil, result)
	result.Duration = time.Since(start)
	return result
}

// execute spawns inv, feeds its stdout through the normalizer and extracts the
// final answer from the captured transcript.
func (r *Runner) execute(ctx context.Context, a agent.Agent, inv *agent.Invocation, target agent.Target, prompt string, sink EventSink, result domain.RunResult) domain.RunResult {
	runCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	proc, err := agent.Execute(runCtx, inv, prompt, r.config.WorkDir)
	if err != nil {
		result.ExitCode = -1
		result.Err = err.Error()
		result.Result = domain.ParseFailed(err.Error())
		return result
	}

	opts := agent.NormalizeOptions{CWD: r.config.WorkDir}
	splitter := stream.NewLineSplitter(func(line string) error {
		ev := a.Normalize(line, opts)
		if ev == nil {
			return nil
		}
		result.Events++
		if sink != nil {
			sink(result.InvocationID, target, *ev)
		}
		return nil
	}, stream.WithErrorHandler(func(err error) {
		if r.config.Verbose {
			r.logger.Logf(terminal.StyleDim, "%s: %v", target, err)
		}
	}))

	if err := proc.Stream(splitter); err != nil && r.config.Verbose {
		r.logger.Logf(terminal.StyleDim, "%s: read stdout: %v", target, err)
	}
	splitter.Flush()

	_ = proc.Close()
	result.ExitCode = proc.ExitCode()
	result.Stderr = proc.Stderr()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		r.logger.Logf(terminal.StyleWarning, "%s timed out", target)
	}

	result.Transcript = proc.Transcript()
	result.Result = a.Extract(result.Transcript)

	if agent.IsAuthFailure(target.Agent, result.ExitCode, result.Stderr) {
		result.AuthFailure = true
		r.logger.Logf(terminal.StyleError, "%s authentication failed. %s", target, agent.AuthHint(target.Agent))
	}

	return result
}

// reextract sends the tail of a failed transcript to the agent's extraction
// model and keeps its answer when that one parses.
func (r *Runner) reextract(ctx context.Context, a agent.Agent, result *domain.RunResult) {
	answer := result.Transcript
	if len(answer) > maxReextractInput {
		answer = answer[len(answer)-maxReextractInput:]
	}
	if answer == "" {
		return
	}

	if r.config.Verbose {
		r.logger.Logf(terminal.StyleDim, "%s: %s, re-extracting", result.AgentName, result.Result.Error)
	}
	retry := r.RunExtraction(ctx, a.Name(), r.config.ExtractionTier, agent.BuildReextractPrompt(answer))
	if retry.Result.Success {
		result.Result = retry.Result
	}
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.Timeout)
}

// failed finishes result for an invocation that never streamed.
func failed(result domain.RunResult, start time.Time, err error) domain.RunResult {
	result.ExitCode = -1
	result.Err = err.Error()
	result.Result = domain.ParseFailed(err.Error())
	result.Duration = time.Since(start)
	return result
}
