// Package domain provides core types shared by the adapter, runner and CLI.
package domain

// ExitCode represents the exit status of the CLI.
type ExitCode int

const (
	// ExitOK indicates every invocation produced a parseable result.
	ExitOK ExitCode = 0
	// ExitNoResult indicates at least one invocation produced no extractable JSON
	// or an agent was unavailable.
	ExitNoResult ExitCode = 1
	// ExitError indicates the command failed due to an error.
	ExitError ExitCode = 2
	// ExitInterrupted indicates the command was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}
