package procattr

import (
	"os"
	"syscall"
)

// SignalGroup sends sig to the process group led by p.
func SignalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	return syscall.Kill(-p.Pid, sig)
}

// KillGroup sends SIGKILL to the process group led by p.
func KillGroup(p *os.Process) error {
	return SignalGroup(p, syscall.SIGKILL)
}
