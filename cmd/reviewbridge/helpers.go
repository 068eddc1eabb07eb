package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/config"
	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/terminal"
)

// exitCodeError is a wrapper type for returning exit codes via error interface.
type exitCodeError struct {
	code domain.ExitCode
}

func (e exitCodeError) Error() string {
	switch e.code {
	case domain.ExitNoResult:
		return "no result was extracted"
	case domain.ExitError:
		return "command failed with error"
	case domain.ExitInterrupted:
		return "command was interrupted"
	default:
		return fmt.Sprintf("exit code %d", e.code)
	}
}

func exitCode(code domain.ExitCode) error {
	if code == domain.ExitOK {
		return nil
	}
	return exitCodeError{code: code}
}

// newCmdLogger returns a logger, switching colors on only for a stderr TTY
// without NO_COLOR.
func newCmdLogger() *terminal.Logger {
	terminal.AutoColors()
	return terminal.NewLogger()
}

// writeJSON writes v to w as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads the named file, or the command's stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// loadResolved loads the config file (unless skipped), env vars and the
// caller's flags into one resolved configuration.
func loadResolved(logger *terminal.Logger, noConfig bool, flags config.FlagState, values config.ResolvedConfig) (config.ResolvedConfig, *config.LoadResult, config.EnvState, error) {
	result := &config.LoadResult{Config: &config.Config{}}
	if !noConfig {
		var err error
		result, err = config.LoadWithWarnings()
		if err != nil {
			return config.ResolvedConfig{}, nil, config.EnvState{}, fmt.Errorf("config error: %w", err)
		}
		for _, warning := range result.Warnings {
			logger.Logf(terminal.StyleWarning, "Warning: %s", warning)
		}
	}

	envState, envWarnings := config.LoadEnvState()
	for _, warning := range envWarnings {
		logger.Logf(terminal.StyleWarning, "Warning: %s", warning)
	}

	resolved := config.Resolve(result.Config, envState, flags, values)
	return resolved, result, envState, nil
}
