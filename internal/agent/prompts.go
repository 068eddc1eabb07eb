package agent

import "strings"

// ReextractPrompt asks a small model to recover the JSON document from an
// agent answer that the extraction pipeline could not parse.
const ReextractPrompt = `The text below is the final answer of a code review agent. It was supposed
to be a single JSON document but could not be parsed.

Return ONLY that JSON document:
- no markdown code fences
- no commentary before or after
- keep every field and value the agent produced; do not invent new ones
- if the text contains no JSON-shaped answer at all, return {}

AGENT ANSWER:
`

// BuildReextractPrompt appends answer to ReextractPrompt.
func BuildReextractPrompt(answer string) string {
	var b strings.Builder
	b.WriteString(ReextractPrompt)
	b.WriteString(strings.TrimSpace(answer))
	b.WriteByte('\n')
	return b.String()
}
