// Package main provides the CLI entry point for reviewbridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/terminal"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr)
			terminal.Log("Interrupted, shutting down...", terminal.StyleWarning)
			cancel()
		case <-ctx.Done():
		}
	}()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Check if this is an exit code wrapper (not a real error)
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			return exitErr.code.Int()
		}
		if ctx.Err() != nil {
			return domain.ExitInterrupted.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}

	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reviewbridge",
		Short: "Drive coding-agent CLIs and extract their JSON answers",
		Long: `Run claude, codex, gemini and pi non-interactively, stream their progress as
uniform events, and extract one structured JSON answer per invocation.

Exit codes:
  0 - Every invocation produced a JSON result
  1 - At least one invocation produced no result or an agent is unavailable
  2 - Error
  130 - Interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newArgsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSchemaCmd())

	return rootCmd
}
