package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
	"github.com/richhaase/reviewbridge/internal/terminal"
)

func newExtractCmd() *cobra.Command {
	var agentName string

	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Extract the JSON answer from a captured transcript",
		Long: `Reconstruct the assistant's final answer from a captured stdout transcript of
the given agent and print the resulting ParseResult as JSON. Reads stdin when
no file is given. Exits 1 when no JSON could be extracted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := agent.NewAgent(agentName)
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			result := a.Extract(raw)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return exitCode(domain.ExitNoResult)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", agent.DefaultAgent,
		"Agent whose protocol the transcript uses: claude, codex, gemini, pi")

	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var (
		agentName string
		cwd       string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Convert a protocol stream on stdin into canonical events",
		Long: `Read the given agent's JSON Lines protocol from stdin and write one canonical
event per line to stdout as it arrives. Lines that carry nothing to show are
dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := agent.NewAgent(agentName)
			if err != nil {
				return err
			}
			logger := newCmdLogger()
			return normalizeStream(cmd.InOrStdin(), cmd.OutOrStdout(), a, agent.NormalizeOptions{CWD: cwd}, logger, verbose)
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", agent.DefaultAgent,
		"Agent whose protocol is on stdin: claude, codex, gemini, pi")
	cmd.Flags().StringVar(&cwd, "cwd", "",
		"Directory prefix to strip from paths in tool summaries")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Log lines the event writer fails on")

	return cmd
}

// normalizeStream feeds in through a line splitter and encodes each event.
func normalizeStream(in io.Reader, out io.Writer, a agent.Agent, opts agent.NormalizeOptions, logger *terminal.Logger, verbose bool) error {
	enc := json.NewEncoder(out)
	var writeErr error

	splitter := stream.NewLineSplitter(func(line string) error {
		ev := a.Normalize(line, opts)
		if ev == nil {
			return nil
		}
		if err := enc.Encode(ev); err != nil {
			writeErr = err
			return err
		}
		return nil
	}, stream.WithErrorHandler(func(err error) {
		if verbose {
			logger.Logf(terminal.StyleDim, "normalize: %v", err)
		}
	}))

	if _, err := io.Copy(splitter, in); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	splitter.Flush()

	if writeErr != nil {
		return fmt.Errorf("failed to write events: %w", writeErr)
	}
	return nil
}
