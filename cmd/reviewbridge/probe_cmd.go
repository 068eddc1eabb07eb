package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/config"
	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/runner"
	"github.com/richhaase/reviewbridge/internal/terminal"
)

func newProbeCmd() *cobra.Command {
	var (
		jsonOutput bool
		noConfig   bool
	)

	cmd := &cobra.Command{
		Use:   "probe [agents...]",
		Short: "Check which agent CLIs are installed and runnable",
		Long: `Run each agent CLI with --version, using the configured command and env, and
report which are available. Probes every supported agent when none are named.
Exits 1 when any probed agent is unavailable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newCmdLogger()

			names := args
			if len(names) == 0 {
				names = agent.SupportedAgents
			}

			resolved, _, _, err := loadResolved(logger, noConfig, config.FlagState{}, config.ResolvedConfig{})
			if err != nil {
				logger.Logf(terminal.StyleError, "%v", err)
				return exitCode(domain.ExitError)
			}

			r := runner.New(runner.Config{Providers: resolved.ProviderConfigs()}, logger)
			results := probeWithSpinner(cmd.Context(), r, names)

			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				printProbeTable(cmd.OutOrStdout(), results)
			}

			for _, res := range results {
				if !res.Available {
					return exitCode(domain.ExitNoResult)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Write results as a JSON array")
	cmd.Flags().BoolVar(&noConfig, "no-config", false, "Skip loading the config file")

	return cmd
}

// probeWithSpinner runs ProbeAll behind a phase spinner on stderr.
func probeWithSpinner(ctx context.Context, r *runner.Runner, names []string) []runner.ProbeResult {
	if ctx == nil {
		ctx = context.Background()
	}

	spinCtx, spinCancel := context.WithCancel(ctx)
	spinDone := make(chan struct{})
	go func() {
		terminal.NewPhaseSpinner("Probing agents").Run(spinCtx)
		close(spinDone)
	}()

	results := r.ProbeAll(ctx, names)

	spinCancel()
	<-spinDone
	return results
}

func printProbeTable(w io.Writer, results []runner.ProbeResult) {
	for _, res := range results {
		status := terminal.Color(terminal.Green) + "available" + terminal.Color(terminal.Reset)
		detail := res.Command
		if !res.Available {
			status = terminal.Color(terminal.Red) + "missing  " + terminal.Color(terminal.Reset)
			detail = res.Error
		}
		fmt.Fprintf(w, "  %-8s %s  %s\n", res.Agent, status, detail)
	}
}
