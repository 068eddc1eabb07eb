package agent

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/stream"
)

// seenText accumulates assistant text fragments in first-seen order, skipping
// exact repeats. One set lives for exactly one Extract call.
type seenText struct {
	seen  map[string]struct{}
	order []string
}

func newSeenText() *seenText {
	return &seenText{seen: make(map[string]struct{})}
}

// add records fragment unless it is blank or an exact repeat of an earlier
// one. Fragments are compared and stored as given, so "abc" and "abc " are
// distinct, as are substrings of earlier fragments.
func (s *seenText) add(fragment string) bool {
	if strings.TrimSpace(fragment) == "" {
		return false
	}
	if _, ok := s.seen[fragment]; ok {
		return false
	}
	s.seen[fragment] = struct{}{}
	s.order = append(s.order, fragment)
	return true
}

func (s *seenText) Len() int {
	return len(s.order)
}

// String joins the fragments with newlines. A fragment is always a whole
// message, so the separator never lands inside a JSON string.
func (s *seenText) String() string {
	return strings.Join(s.order, "\n")
}

// transcriptDecoder is the per-vendor half of extraction. A fresh decoder is
// built for every Extract call, so decoders may keep state between lines.
type transcriptDecoder interface {
	// decodeLine handles one non-blank transcript line.
	decodeLine(line string, seen *seenText)
	// finish runs after the last line.
	finish(seen *seenText)
}

// extractTranscript feeds raw through a line splitter into dec and runs the
// JSON pipeline over the accumulated text, or over raw when nothing was
// accumulated. It never panics.
func extractTranscript(raw string, dec transcriptDecoder) (result domain.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.ParseFailed(fmt.Sprintf("extraction failed: %v", r))
		}
	}()

	seen := newSeenText()
	splitter := stream.NewLineSplitter(func(line string) error {
		line = strings.TrimSpace(line)
		if line != "" {
			dec.decodeLine(line, seen)
		}
		return nil
	})
	splitter.FeedString(raw)
	splitter.Flush()
	dec.finish(seen)

	if seen.Len() == 0 {
		return ParseJSONText(raw)
	}
	return ParseJSONText(seen.String())
}

// contentBlock is the union of content block shapes across vendors.
type contentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	Arguments map[string]any `json:"arguments"`
}

// decodeContent accepts either a bare string or an array of content blocks.
// A string becomes a single text block.
func decodeContent(raw json.RawMessage) []contentBlock {
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return []contentBlock{{Type: "text", Text: s}}
	case '[':
		var blocks []contentBlock
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return nil
		}
		return blocks
	}
	return nil
}

// firstText returns the first non-blank text block.
func firstText(blocks []contentBlock) string {
	for _, b := range blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			return b.Text
		}
	}
	return ""
}

// joinedText concatenates every text block of one message.
func joinedText(blocks []contentBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
