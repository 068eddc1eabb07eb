package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"

	"github.com/richhaase/reviewbridge/internal/procattr"
)

// cmdReader wraps a subprocess's stdout and ensures the command is waited on
// when closed. Exit code and stderr are valid after Close.
type cmdReader struct {
	io.Reader
	cmd       *exec.Cmd
	ctx       context.Context
	stderr    *bytes.Buffer
	exitCode  int
	closeOnce sync.Once
}

// Close implements io.Closer and waits for the command to complete.
// If the context was canceled or timed out, it kills the entire process group
// so no orphaned grandchildren are left behind.
// Close is safe for concurrent calls - only the first call performs cleanup.
func (r *cmdReader) Close() error {
	r.closeOnce.Do(func() {
		if closer, ok := r.Reader.(io.Closer); ok {
			_ = closer.Close()
		}

		if r.cmd == nil || r.cmd.Process == nil {
			return
		}

		if r.ctx != nil && r.ctx.Err() != nil {
			// Process may have already exited.
			_ = procattr.KillGroup(r.cmd.Process)
		}

		err := r.cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			r.exitCode = 0
		case errors.As(err, &exitErr):
			r.exitCode = exitErr.ExitCode()
		default:
			r.exitCode = -1
		}
	})

	return nil
}

// ExitCode returns the process exit code. Only valid after Close.
// Returns -1 if the process could not be waited on or was killed by a signal.
func (r *cmdReader) ExitCode() int {
	return r.exitCode
}

// Stderr returns captured stderr output. Only valid after Close.
func (r *cmdReader) Stderr() string {
	if r.stderr == nil {
		return ""
	}
	return r.stderr.String()
}
