// Package terminal renders reviewbridge's stderr output: log lines, the
// progress spinner, live agent events, the run summary and the target picker.
package terminal

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// ANSI sequences used by the logger, spinner and probe table.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Cyan    = "\033[36m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Red     = "\033[31m"
	Magenta = "\033[35m"
)

// noColor is the process-wide styling switch. The zero value styles output.
var noColor atomic.Bool

// SetColorsEnabled turns ANSI styling on or off for every writer in the
// package, including lipgloss-rendered events.
func SetColorsEnabled(enabled bool) {
	noColor.Store(!enabled)
}

// ColorsEnabled reports whether ANSI styling is on.
func ColorsEnabled() bool {
	return !noColor.Load()
}

// AutoColors styles output only when stderr is a terminal and NO_COLOR is
// unset or empty.
func AutoColors() {
	SetColorsEnabled(IsStderrTTY() && os.Getenv("NO_COLOR") == "")
}

// Color returns c while styling is on, and "" otherwise.
func Color(c string) string {
	if noColor.Load() {
		return ""
	}
	return c
}

// IsStdinTTY reports whether stdin is a terminal. A prompt is only read from
// stdin when it is not.
func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStderrTTY reports whether stderr is a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// stderrWidth returns the column count of the terminal on stderr, or 80 when
// stderr is not a terminal.
func stderrWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
