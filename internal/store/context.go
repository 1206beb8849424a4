package store

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mstolt/recall/internal/model"
)

// TruncationMarker is appended when a context block is cut at its budget.
const TruncationMarker = "...[memories truncated]"

// DefaultContextChars bounds the rendered block when the caller passes no
// budget (a rough 2000-token allowance at 4 chars per token).
const DefaultContextChars = 8000

// BuildContextBlock retrieves memories relevant to query and renders them
// as a bounded prompt fragment, one "- [category] text" line per hit. The
// block never exceeds maxChars plus the truncation marker, and the call
// never fails: with retrieval degraded or empty it still returns a
// placeholder block.
func (s *Store) BuildContextBlock(ctx context.Context, query string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultContextChars
	}

	results := s.Search(ctx, query, SearchOptions{})

	var b strings.Builder
	b.WriteString("## Relevant Memories:\n")
	if len(results) == 0 {
		b.WriteString("- No relevant memories found.\n")
	} else {
		for _, r := range results {
			b.WriteString("- [")
			b.WriteString(string(r.Category))
			b.WriteString("] ")
			b.WriteString(r.Text)
			b.WriteString("\n")
		}
	}

	block := b.String()
	if len(block) > maxChars {
		// Cut on a rune boundary so the marker never follows a split
		// multi-byte sequence.
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(block[cut]) {
			cut--
		}
		block = block[:cut] + TruncationMarker
	}
	return block
}

// ConversationWindow trims a message history to the most recent maxTurns
// user/assistant exchanges, always preserving a single leading system
// message when one exists. Messages come back oldest first.
func ConversationWindow(messages []model.Message, maxTurns int) []model.Message {
	if maxTurns <= 0 {
		maxTurns = 10
	}

	var system *model.Message
	var turns []model.Message
	for i := range messages {
		switch messages[i].Role {
		case "system":
			if system == nil {
				system = &messages[i]
			}
		case "user", "assistant":
			turns = append(turns, messages[i])
		}
	}

	if len(turns) > maxTurns*2 {
		turns = turns[len(turns)-maxTurns*2:]
	}

	if system == nil {
		return turns
	}
	return append([]model.Message{*system}, turns...)
}
