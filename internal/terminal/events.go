package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/richhaase/reviewbridge/internal/stream"
)

// labelPalette colors target labels in first-seen order.
var labelPalette = []string{"12", "13", "14", "11", "10", "9"}

// EventPrinter renders live progress events as one line each, prefixed with
// the label of the run that produced them, and the summary that follows a
// run. It is safe for concurrent use.
type EventPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	width    int
	renderer *lipgloss.Renderer
	labels   map[string]lipgloss.Style
	toolMark lipgloss.Style
	toolText lipgloss.Style
	dim      lipgloss.Style
}

// NewEventPrinter creates a printer writing to out, or stderr when out is nil.
// Styling follows the color profile of out.
func NewEventPrinter(out io.Writer) *EventPrinter {
	if out == nil {
		out = os.Stderr
	}
	r := lipgloss.NewRenderer(out)
	return &EventPrinter{
		out:      out,
		width:    summaryWidth(),
		renderer: r,
		labels:   make(map[string]lipgloss.Style),
		toolMark: r.NewStyle().Foreground(lipgloss.Color("3")),
		toolText: r.NewStyle().Foreground(lipgloss.Color("8")),
		dim:      r.NewStyle().Faint(true),
	}
}

// Print writes ev under label.
func (p *EventPrinter) Print(label string, ev stream.Event) {
	text := strings.Join(strings.Fields(ev.Text), " ")
	if text == "" {
		return
	}

	p.mu.Lock()
	prefix := p.labelStyle(label).Render(label)
	p.mu.Unlock()

	switch ev.Type {
	case stream.EventToolUse:
		p.writeLine(fmt.Sprintf("%s %s %s", prefix, p.render(p.toolMark, "→"), p.render(p.toolText, text)))
	default:
		p.writeLine(fmt.Sprintf("%s %s", prefix, text))
	}
}

// writeLine writes s and a newline without interleaving with other stderr
// writers.
func (p *EventPrinter) writeLine(s string) {
	outputMu.Lock()
	defer outputMu.Unlock()
	fmt.Fprintln(p.out, s)
}

func (p *EventPrinter) labelStyle(label string) lipgloss.Style {
	if style, ok := p.labels[label]; ok {
		return style
	}
	color := labelPalette[len(p.labels)%len(labelPalette)]
	style := p.renderer.NewStyle().Bold(true)
	if ColorsEnabled() {
		style = style.Foreground(lipgloss.Color(color))
	}
	p.labels[label] = style
	return style
}

func (p *EventPrinter) render(style lipgloss.Style, s string) string {
	if !ColorsEnabled() {
		return s
	}
	return style.Render(s)
}
