package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/domain"
)

func TestExitCodeError_Error(t *testing.T) {
	tests := []struct {
		code     domain.ExitCode
		contains string
	}{
		{domain.ExitNoResult, "no result was extracted"},
		{domain.ExitError, "command failed with error"},
		{domain.ExitInterrupted, "command was interrupted"},
		{domain.ExitCode(99), "exit code 99"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			err := exitCodeError{code: tt.code}
			if err.Error() != tt.contains {
				t.Errorf("expected %q, got %q", tt.contains, err.Error())
			}
		})
	}
}

func TestExitCode_ReturnsNilForOK(t *testing.T) {
	err := exitCode(domain.ExitOK)
	if err != nil {
		t.Errorf("expected nil for ExitOK, got %v", err)
	}
}

func TestExitCode_ReturnsErrorForOtherCodes(t *testing.T) {
	codes := []domain.ExitCode{
		domain.ExitNoResult,
		domain.ExitError,
		domain.ExitInterrupted,
	}

	for _, code := range codes {
		err := exitCode(code)
		if err == nil {
			t.Errorf("expected error for code %d, got nil", code)
		}
		exitErr, ok := err.(exitCodeError)
		if !ok {
			t.Errorf("expected exitCodeError type, got %T", err)
		}
		if exitErr.code != code {
			t.Errorf("expected code %d, got %d", code, exitErr.code)
		}
	}
}

func TestWriteJSON_Indented(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, domain.ParseOK(map[string]any{"a": 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "{\n  \"success\": true,\n  \"data\": {\n    \"a\": 1\n  }\n}\n"
	if buf.String() != want {
		t.Errorf("writeJSON() = %q, want %q", buf.String(), want)
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(path, []byte("from file"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"file", path, "from file"},
		{"dash reads stdin", "-", "from stdin"},
		{"empty reads stdin", "", "from stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetIn(strings.NewReader("from stdin"))

			got, err := readInput(cmd, tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInput_MissingFile(t *testing.T) {
	_, err := readInput(&cobra.Command{}, "/nonexistent/transcript.jsonl")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveWorkDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveWorkDir(dir)
	if err != nil || got != dir {
		t.Errorf("resolveWorkDir(dir) = %q, %v", got, err)
	}

	if wd, _ := os.Getwd(); wd != "" {
		if got, err := resolveWorkDir(""); err != nil || got != wd {
			t.Errorf("resolveWorkDir(\"\") = %q, %v, want %q", got, err, wd)
		}
	}

	if _, err := resolveWorkDir(file); err == nil {
		t.Error("expected error for a regular file")
	}
	if _, err := resolveWorkDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestStderrTail(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"empty", "", ""},
		{"blank lines", "\n  \n", ""},
		{"last non-blank line", "warming up\nError: not logged in\n\n", "Error: not logged in"},
		{"long line truncated", strings.Repeat("x", stderrTailLen+10), strings.Repeat("x", stderrTailLen) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stderrTail(tt.stderr); got != tt.want {
				t.Errorf("stderrTail() = %q, want %q", got, tt.want)
			}
		})
	}
}
