package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Style represents a log message style.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
	StyleDim     Style = "dim"
	StylePhase   Style = "phase"
)

// appTag labels every line this program writes to stderr.
const appTag = "reviewbridge"

// styleFormats maps a style to its color and leading symbol.
var styleFormats = map[Style]struct {
	color  string
	symbol string
}{
	StyleInfo:    {Cyan, "I"},
	StyleSuccess: {Green, "✓"},
	StyleWarning: {Yellow, "W"},
	StyleError:   {Red, "!"},
	StyleDim:     {Dim, "·"},
	StylePhase:   {Magenta + Bold, "▸"},
}

// outputMu serializes whole lines from loggers, spinners and event printers
// that share stderr.
var outputMu sync.Mutex

// Logger provides styled logging to stderr.
type Logger struct {
	isTTY bool
	out   io.Writer
}

// NewLogger creates a new logger.
func NewLogger() *Logger {
	return &Logger{
		isTTY: IsStderrTTY(),
	}
}

func (l *Logger) writer() io.Writer {
	if l.out != nil {
		return l.out
	}
	return os.Stderr
}

// tag renders "[reviewbridge]" with the name in the given color.
func tag(color string) string {
	return fmt.Sprintf("%s[%s%s%s%s%s]%s",
		Color(Dim), Color(Reset), Color(color), appTag, Color(Reset), Color(Dim), Color(Reset))
}

// Log prints a styled log message to stderr.
func (l *Logger) Log(msg string, style Style) {
	format, ok := styleFormats[style]
	if !ok {
		format = styleFormats[StyleInfo]
	}

	outputMu.Lock()
	defer outputMu.Unlock()

	w := l.writer()
	// Clear line if TTY
	if l.isTTY {
		fmt.Fprint(w, "\r"+strings.Repeat(" ", 100)+"\r")
	}

	symbol := Color(format.color) + format.symbol + Color(Reset)
	fmt.Fprintf(w, "%s %s %s\n", tag(format.color), symbol, msg)
}

// Logf prints a formatted styled log message to stderr.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}

// Log prints a styled log message to stderr (package-level function).
func Log(msg string, style Style) {
	logger := NewLogger()
	logger.Log(msg, style)
}

// Logf prints a formatted styled log message to stderr (package-level function).
func Logf(style Style, format string, args ...any) {
	Log(fmt.Sprintf(format, args...), style)
}
