package runner

import (
	"context"
	"sync"

	"github.com/richhaase/reviewbridge/internal/agent"
)

// ProbeResult is the availability of one agent CLI.
type ProbeResult struct {
	Agent     string `json:"agent"`
	Command   string `json:"command,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// ProbeAll probes the named agents concurrently with their configured command
// and env. Results are returned in input order.
func (r *Runner) ProbeAll(ctx context.Context, names []string) []ProbeResult {
	results := make([]ProbeResult, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = r.probe(ctx, name)
		}(i, name)
	}
	wg.Wait()

	return results
}

func (r *Runner) probe(ctx context.Context, name string) ProbeResult {
	result := ProbeResult{Agent: name}

	a, err := agent.NewAgent(name)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	inv, err := a.BuildInvocation("", r.Provider(name))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Command = inv.Command
	result.Available = agent.Probe(ctx, inv)
	if !result.Available {
		result.Error = inv.Command + " --version failed"
	}
	return result
}
