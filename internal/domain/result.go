package domain

import "time"

// ParseResult is the terminal outcome of extracting structured data from one
// subprocess transcript. Data is present iff Success; Error is present iff not.
type ParseResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ParseOK builds a successful ParseResult.
func ParseOK(data any) ParseResult {
	return ParseResult{Success: true, Data: data}
}

// ParseFailed builds a failed ParseResult.
func ParseFailed(reason string) ParseResult {
	return ParseResult{Error: reason}
}

// RunResult holds the outcome of a single agent invocation.
type RunResult struct {
	InvocationID string        `json:"invocation_id"`
	AgentName    string        `json:"agent"`
	Model        string        `json:"model,omitempty"`
	Result       ParseResult   `json:"result"`
	ExitCode     int           `json:"exit_code"`
	Stderr       string        `json:"stderr,omitempty"`
	Events       int           `json:"events"`
	TimedOut     bool          `json:"timed_out,omitempty"`
	AuthFailure  bool          `json:"auth_failure,omitempty"`
	Err          string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ns"`

	// Transcript is the raw stdout of the run. It is kept for re-extraction
	// and debugging and is not serialized.
	Transcript string `json:"-"`
}

// OK reports whether the invocation produced a parseable result.
func (r *RunResult) OK() bool {
	return r.Err == "" && r.Result.Success
}

// RunStats summarizes a batch of runs.
type RunStats struct {
	Total             int
	Succeeded         int
	Failed            []string
	TimedOut          []string
	WallClockDuration time.Duration
}

// AllFailed returns true if no run succeeded.
func (s *RunStats) AllFailed() bool {
	return s.Total > 0 && s.Succeeded == 0
}

// Stats computes RunStats for the given results. Failed and TimedOut hold
// invocation labels of the form "agent:model" (or "agent").
func Stats(results []RunResult, wall time.Duration) RunStats {
	stats := RunStats{Total: len(results), WallClockDuration: wall}
	for i := range results {
		r := &results[i]
		label := r.AgentName
		if r.Model != "" {
			label += ":" + r.Model
		}
		switch {
		case r.TimedOut:
			stats.TimedOut = append(stats.TimedOut, label)
		case r.OK():
			stats.Succeeded++
		default:
			stats.Failed = append(stats.Failed, label)
		}
	}
	return stats
}
