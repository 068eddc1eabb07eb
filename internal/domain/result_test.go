package domain

import (
	"testing"
	"time"
)

func TestParseOKAndFailed(t *testing.T) {
	ok := ParseOK(map[string]any{"k": 1.0})
	if !ok.Success || ok.Error != "" || ok.Data == nil {
		t.Errorf("ParseOK() = %+v", ok)
	}

	failed := ParseFailed("no valid JSON found in output")
	if failed.Success || failed.Data != nil || failed.Error == "" {
		t.Errorf("ParseFailed() = %+v", failed)
	}
}

func TestStats(t *testing.T) {
	results := []RunResult{
		{AgentName: "claude", Model: "sonnet", Result: ParseOK(1.0)},
		{AgentName: "codex", Result: ParseFailed("no valid JSON found in output")},
		{AgentName: "gemini", TimedOut: true},
		{AgentName: "pi", Result: ParseOK(2.0), Err: "exit status 1"},
	}

	stats := Stats(results, 3*time.Second)

	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", stats.Succeeded)
	}
	if len(stats.Failed) != 2 || stats.Failed[0] != "codex" || stats.Failed[1] != "pi" {
		t.Errorf("Failed = %v, want [codex pi]", stats.Failed)
	}
	if len(stats.TimedOut) != 1 || stats.TimedOut[0] != "gemini" {
		t.Errorf("TimedOut = %v, want [gemini]", stats.TimedOut)
	}
	if stats.AllFailed() {
		t.Error("AllFailed() = true, want false")
	}
	if stats.WallClockDuration != 3*time.Second {
		t.Errorf("WallClockDuration = %v", stats.WallClockDuration)
	}
}

func TestStats_AllFailed(t *testing.T) {
	stats := Stats([]RunResult{{AgentName: "codex", Result: ParseFailed("x")}}, 0)
	if !stats.AllFailed() {
		t.Error("AllFailed() = false, want true")
	}

	empty := Stats(nil, 0)
	if empty.AllFailed() {
		t.Error("AllFailed() on empty stats should be false")
	}
}
