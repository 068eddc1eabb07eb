package main

import (
	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/config"
	"github.com/richhaase/reviewbridge/internal/domain"
)

// argsOutput is the JSON shape printed by the args command.
type argsOutput struct {
	agent.Invocation
	ShellCommand string `json:"shell_command"`
}

func newArgsCmd() *cobra.Command {
	var (
		agentName  string
		model      string
		extraction bool
		tier       string
		yolo       bool
		noConfig   bool
	)

	cmd := &cobra.Command{
		Use:   "args",
		Short: "Print the resolved command line for an agent",
		Long: `Resolve the command, arguments and environment that run would use for the
agent and print them as JSON. With --extraction, print the lightweight
extraction-only call for the given tier instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := agent.NewAgent(agentName)
			if err != nil {
				return err
			}

			parsedTier, err := domain.ParseTier(tier)
			if err != nil {
				return err
			}

			logger := newCmdLogger()
			flags := config.FlagState{YoloSet: cmd.Flags().Changed("yolo")}
			resolved, _, _, err := loadResolved(logger, noConfig, flags, config.ResolvedConfig{Yolo: yolo})
			if err != nil {
				return err
			}
			provider := resolved.Provider(a.Name())

			if extraction {
				return writeJSON(cmd.OutOrStdout(), a.BuildExtractionConfig(parsedTier, provider))
			}

			inv, err := a.BuildInvocation(model, provider)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), argsOutput{Invocation: *inv, ShellCommand: inv.ShellCommand()})
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", agent.DefaultAgent,
		"Agent to resolve: claude, codex, gemini, pi")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to select")
	cmd.Flags().BoolVar(&extraction, "extraction", false, "Resolve the extraction-only call")
	cmd.Flags().StringVar(&tier, "tier", string(domain.TierFast), "Extraction tier: fast, balanced, thorough")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Resolve with tool restrictions removed")
	cmd.Flags().BoolVar(&noConfig, "no-config", false, "Skip loading the config file")

	return cmd
}
