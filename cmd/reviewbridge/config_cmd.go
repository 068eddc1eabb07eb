package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/agent"
	"github.com/richhaase/reviewbridge/internal/config"
	"github.com/richhaase/reviewbridge/internal/terminal"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage reviewbridge configuration",
		Long:  "View, initialize, and validate reviewbridge configuration files and environment variables.",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display resolved configuration",
		Long:  "Show the fully resolved configuration from defaults, config file, and environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := config.LoadWithWarnings()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			envState, _ := config.LoadEnvState()

			resolved := config.Resolve(result.Config, envState, config.FlagState{}, config.Defaults)
			printResolved(cmd.OutOrStdout(), result, resolved)
			return nil
		},
	}
}

func printResolved(w io.Writer, result *config.LoadResult, resolved config.ResolvedConfig) {
	source := "(none, using defaults)"
	if result.Path != "" {
		source = result.Path
	}

	model := resolved.Model
	if model == "" {
		model = "(agent default)"
	}
	concurrency := fmt.Sprintf("%d", resolved.Concurrency)
	if resolved.Concurrency == 0 {
		concurrency = "0 (one per target)"
	}

	fmt.Fprintf(w, "Resolved configuration (%s):\n", source)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-22s %s\n", "agent:", resolved.Agent)
	fmt.Fprintf(w, "  %-22s %s\n", "model:", model)
	fmt.Fprintf(w, "  %-22s %s\n", "timeout:", resolved.Timeout)
	fmt.Fprintf(w, "  %-22s %s\n", "concurrency:", concurrency)
	fmt.Fprintf(w, "  %-22s %s\n", "extraction_tier:", resolved.ExtractionTier)
	fmt.Fprintf(w, "  %-22s %t\n", "yolo:", resolved.Yolo)
	fmt.Fprintf(w, "  %-22s %t\n", "reextract:", resolved.Reextract)
	if resolved.PromptFile != "" {
		fmt.Fprintf(w, "  %-22s %s\n", "prompt_file:", resolved.PromptFile)
	}

	names := make([]string, 0, len(resolved.Providers))
	for name := range resolved.Providers {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p := resolved.Provider(name)
		if p.Command != "" {
			fmt.Fprintf(w, "  %-22s %s\n", "providers."+name+".command:", p.Command)
		}
		if len(p.ExtraArgs) > 0 {
			fmt.Fprintf(w, "  %-22s %s\n", "providers."+name+".extra_args:", strings.Join(p.ExtraArgs, " "))
		}
		fmt.Fprintf(w, "  %-22s %t\n", "providers."+name+".yolo:", p.IsYolo())
		if len(p.Models) > 0 {
			ids := make([]string, len(p.Models))
			for i, m := range p.Models {
				ids[i] = m.ID
			}
			fmt.Fprintf(w, "  %-22s %s\n", "providers."+name+".models:", strings.Join(ids, ", "))
		}
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a starter .reviewbridge.yaml file",
		Long:  "Create a commented .reviewbridge.yaml configuration file in the current directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			configPath := filepath.Join(wd, config.ConfigFileName)

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists; remove it first or edit it directly", configPath)
			}

			if err := os.WriteFile(configPath, []byte(config.Starter), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with default settings (commented out).\n", configPath)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and environment variables",
		Long:  "Load and validate the config file and environment variables, reporting any warnings or errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newCmdLogger()
			var errors []string
			var warnings []string

			// Load and validate config file (don't early-return so env var issues are also reported)
			cfg := &config.Config{}
			configDir := ""
			configFileError := false
			result, err := config.LoadWithWarnings()
			if err != nil {
				errors = append(errors, fmt.Sprintf("config file: %v", err))
				configFileError = true
			}
			if result != nil {
				cfg = result.Config
				configDir = result.Dir()
				warnings = append(warnings, result.Warnings...)
			}

			// Env values that fail to parse are ignored at runtime, but validation
			// reports them as errors.
			envState, envWarnings := config.LoadEnvState()
			errors = append(errors, envWarnings...)

			// Resolve against defaults only when the file is broken so its errors
			// are not reported twice.
			resolveConfig := cfg
			if configFileError {
				resolveConfig = &config.Config{}
			}
			resolved := config.Resolve(resolveConfig, envState, config.FlagState{}, config.Defaults)
			errors = append(errors, resolved.ValidateAll()...)

			// Validate the prompt file is readable (same resolution as runtime)
			if _, err := config.ResolvePrompt(cfg, envState, config.FlagState{}, config.ResolvedConfig{}, configDir); err != nil {
				errors = append(errors, err.Error())
			}

			for _, t := range resolved.Targets() {
				if p := resolved.Provider(t.Agent); t.Model != "" && len(p.Models) > 0 && p.Model(t.Model) == nil {
					warnings = append(warnings, fmt.Sprintf("target %s: no providers.%s.models entry for %q", t, t.Agent, t.Model))
				}
			}

			for _, w := range warnings {
				logger.Logf(terminal.StyleWarning, "Config: %s", w)
			}
			for _, e := range errors {
				logger.Logf(terminal.StyleError, "%s", e)
			}

			if len(errors) > 0 {
				return fmt.Errorf("configuration has %d error(s)", len(errors))
			}

			if len(warnings) > 0 {
				logger.Log("Configuration is valid (with warnings).", terminal.StyleSuccess)
			} else {
				logger.Logf(terminal.StyleSuccess, "Configuration is valid. Targets: %s", agent.FormatDistribution(resolved.Targets()))
			}

			return nil
		},
	}
}
