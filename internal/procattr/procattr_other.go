//go:build !linux

// Package procattr configures agent subprocesses so a whole process tree can
// be killed at once and does not outlive the parent.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set puts the child in its own process group. Pdeathsig is Linux-only.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
