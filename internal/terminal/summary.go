package terminal

import (
	"fmt"
	"strings"
	"time"
)

// maxSummaryWidth caps the run summary on wide terminals.
const maxSummaryWidth = 90

// detailIndent is the left padding of a summary detail block.
const detailIndent = 4

func summaryWidth() int {
	return min(stderrWidth(), maxSummaryWidth)
}

// Rule writes a dim horizontal rule across the summary width.
func (p *EventPrinter) Rule() {
	p.writeLine(p.render(p.dim, strings.Repeat("─", p.width)))
}

// Detail writes text as an indented block, word-wrapped to the summary
// width. Runs of whitespace collapse to one space and blank text writes
// nothing.
func (p *EventPrinter) Detail(text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}

	style := p.renderer.NewStyle().Width(p.width).PaddingLeft(detailIndent)
	if ColorsEnabled() {
		style = style.Faint(true)
	}
	lines := strings.Split(style.Render(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	p.writeLine(strings.Join(lines, "\n"))
}

// FormatDuration renders how long a run took: milliseconds under a second,
// tenths of a second under a minute, then minutes and whole seconds.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d/time.Minute), int(d%time.Minute/time.Second))
	}
}
