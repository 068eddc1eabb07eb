package agent

import (
	"bytes"
	"io"
)

// ExecutionResult is a started agent subprocess. Reading it yields the
// subprocess's stdout and records every byte read as the run's transcript.
// ExitCode and Stderr are valid once Close has waited for the process.
type ExecutionResult struct {
	proc       *cmdReader
	transcript bytes.Buffer
}

// Read implements io.Reader.
func (r *ExecutionResult) Read(p []byte) (int, error) {
	n, err := r.proc.Read(p)
	r.transcript.Write(p[:n])
	return n, err
}

// Stream copies stdout into w until EOF and returns the first read error.
// Lines may span the chunks w receives.
func (r *ExecutionResult) Stream(w io.Writer) error {
	_, err := io.Copy(w, r)
	return err
}

// Transcript returns everything read from stdout so far.
func (r *ExecutionResult) Transcript() string {
	return r.transcript.String()
}

// Close waits for the process. Only the first call does any work.
func (r *ExecutionResult) Close() error {
	return r.proc.Close()
}

// ExitCode returns the process exit code, or -1 when it could not be waited
// on or was killed by a signal.
func (r *ExecutionResult) ExitCode() int {
	return r.proc.ExitCode()
}

// Stderr returns the captured stderr output.
func (r *ExecutionResult) Stderr() string {
	return r.proc.Stderr()
}
