package agent

import (
	"context"
	"time"
)

// ProbeTimeout bounds a single availability probe.
const ProbeTimeout = 10 * time.Second

// probeArgs is the trivial argument every supported CLI answers quickly.
var probeArgs = []string{"--version"}

// Probe runs the invocation's command with --version and the invocation's
// env. It reports true only when the process exits 0 within ProbeTimeout; a
// missing binary, a non-zero exit or a timeout all report false. On timeout
// the whole process group is killed before Probe returns.
func Probe(ctx context.Context, inv *Invocation) bool {
	return probeWithTimeout(ctx, inv, ProbeTimeout)
}

func probeWithTimeout(ctx context.Context, inv *Invocation, timeout time.Duration) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if inv == nil || inv.Command == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := newCmd(ctx, inv.Command, probeArgs, inv.UseShell, inv.Env)
	return cmd.Run() == nil
}
