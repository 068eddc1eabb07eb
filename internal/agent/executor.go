package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/procattr"
)

// waitDelay bounds how long Wait keeps draining pipes after the process exits
// or is killed.
const waitDelay = 5 * time.Second

// checkCommand is swapped in tests.
var checkCommand = func(command string) error {
	_, err := exec.LookPath(command)
	return err
}

// executeOptions configures command execution for agent CLI invocations.
type executeOptions struct {
	// Command is the resolved executable or shell snippet.
	Command string
	// Args are the command-line arguments.
	Args []string
	// UseShell runs Command and Args through "sh -c".
	UseShell bool
	// Env is layered over the parent environment.
	Env map[string]string
	// Stdin provides input to the command (typically the prompt).
	Stdin io.Reader
	// WorkDir sets the working directory for the command.
	WorkDir string
}

// Execute starts inv with prompt on stdin (or as the last argument when the
// invocation does not read stdin). The caller MUST Close the result.
func Execute(ctx context.Context, inv *Invocation, prompt, workDir string) (*ExecutionResult, error) {
	opts := executeOptions{
		Command:  inv.Command,
		Args:     inv.Args,
		UseShell: inv.UseShell,
		Env:      inv.Env,
		WorkDir:  workDir,
	}
	if inv.PromptViaStdin {
		opts.Stdin = strings.NewReader(prompt)
	} else {
		opts.Args = append(append([]string{}, inv.Args...), prompt)
	}
	return executeCommand(ctx, opts)
}

// ExecuteExtraction starts the extraction-only call described by cfg.
func ExecuteExtraction(ctx context.Context, cfg domain.ExtractionConfig, prompt, workDir string) (*ExecutionResult, error) {
	return Execute(ctx, &Invocation{
		Command:        cfg.Command,
		Args:           cfg.Args,
		UseShell:       cfg.UseShell,
		PromptViaStdin: cfg.PromptViaStdin,
		Env:            cfg.Env,
		Model:          cfg.Model,
	}, prompt, workDir)
}

// newCmd builds the exec.Cmd shared by Execute and Probe: process group,
// group kill on cancel, and the merged environment.
func newCmd(ctx context.Context, command string, args []string, useShell bool, env map[string]string) *exec.Cmd {
	name, argv := commandLine(command, args, useShell)
	// #nosec G204 - the command comes from the agent table or the user's own config.
	cmd := exec.CommandContext(ctx, name, argv...)
	procattr.Set(cmd)
	cmd.Cancel = func() error {
		return procattr.KillGroup(cmd.Process)
	}
	cmd.WaitDelay = waitDelay
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), EnvList(env)...)
	}
	return cmd
}

// executeCommand runs a CLI command with proper process group setup and resource management.
// This is the shared implementation behind Execute and ExecuteExtraction.
//
// It handles:
//   - Setting the process group and parent-death signal (procattr)
//   - Capturing stderr for error diagnostics
//   - Creating a stdout pipe for streaming output
//   - Starting the command and returning a managed ExecutionResult
func executeCommand(ctx context.Context, opts executeOptions) (*ExecutionResult, error) {
	cmd := newCmd(ctx, opts.Command, opts.Args, opts.UseShell, opts.Env)

	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}

	// Capture stderr for error diagnostics
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", opts.Command, err)
	}

	return &ExecutionResult{proc: &cmdReader{
		Reader: stdout,
		cmd:    cmd,
		ctx:    ctx,
		stderr: stderr,
	}}, nil
}
