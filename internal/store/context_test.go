package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mstolt/recall/internal/llm"
	"github.com/mstolt/recall/internal/model"
)

func TestBuildContextBlock(t *testing.T) {
	client := &llm.Static{Vec: []float32{1, 0}}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	s.Add(ctx, "user loves hiking", []float32{1, 0}, AddParams{})

	block := s.BuildContextBlock(ctx, "user loves hiking", 0)
	if !strings.HasPrefix(block, "## Relevant Memories:\n") {
		t.Errorf("missing header: %q", block)
	}
	if !strings.Contains(block, "- [fact] user loves hiking\n") {
		t.Errorf("missing memory line: %q", block)
	}
}

func TestBuildContextBlock_Empty(t *testing.T) {
	s, _ := newTestStore(t, nil)

	block := s.BuildContextBlock(context.Background(), "anything at all", 0)
	want := "## Relevant Memories:\n- No relevant memories found.\n"
	if block != want {
		t.Errorf("block = %q, want %q", block, want)
	}
}

func TestBuildContextBlock_Truncates(t *testing.T) {
	client := &llm.Static{Vec: []float32{1, 0}}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	long := strings.Repeat("user loves hiking and long trail descriptions ", 20)
	s.Add(ctx, long, []float32{1, 0}, AddParams{})

	const budget = 120
	block := s.BuildContextBlock(ctx, "user loves hiking", budget)
	if len(block) > budget+len(TruncationMarker) {
		t.Errorf("block length %d exceeds budget plus marker", len(block))
	}
	if !strings.HasSuffix(block, TruncationMarker) {
		t.Errorf("truncated block missing marker: %q", block)
	}
}

func TestBuildContextBlock_TruncatesOnRuneBoundary(t *testing.T) {
	client := &llm.Static{Vec: []float32{1, 0}}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	long := strings.Repeat("早起きのユーザーは山歩きが大好きです ", 20)
	s.Add(ctx, long, []float32{1, 0}, AddParams{})

	// Sweep budgets so the cut lands inside multi-byte runes too.
	for budget := 60; budget < 70; budget++ {
		block := s.BuildContextBlock(ctx, "user", budget)
		if !utf8.ValidString(block) {
			t.Errorf("budget %d: truncated block is not valid UTF-8: %q", budget, block)
		}
		if len(block) > budget+len(TruncationMarker) {
			t.Errorf("budget %d: block length %d exceeds budget plus marker", budget, len(block))
		}
	}
}

func TestConversationWindow(t *testing.T) {
	msgs := []model.Message{{Role: "system", Content: "be kind"}}
	for i := 0; i < 15; i++ {
		msgs = append(msgs,
			model.Message{Role: "user", Content: fmt.Sprintf("q%d", i)},
			model.Message{Role: "assistant", Content: fmt.Sprintf("a%d", i)},
		)
	}

	got := ConversationWindow(msgs, 10)
	if len(got) != 21 {
		t.Fatalf("window length = %d, want system + 20 turns", len(got))
	}
	if got[0].Role != "system" {
		t.Errorf("first message role = %s, want system", got[0].Role)
	}
	if got[1].Content != "q5" {
		t.Errorf("oldest kept turn = %q, want q5", got[1].Content)
	}
	if got[len(got)-1].Content != "a14" {
		t.Errorf("newest turn = %q, want a14", got[len(got)-1].Content)
	}
}

func TestConversationWindow_ShortHistoryUnchanged(t *testing.T) {
	msgs := []model.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	got := ConversationWindow(msgs, 10)
	if len(got) != 2 {
		t.Errorf("window length = %d, want 2", len(got))
	}
}

func TestConversationWindow_DefaultTurns(t *testing.T) {
	var msgs []model.Message
	for i := 0; i < 30; i++ {
		msgs = append(msgs, model.Message{Role: "user", Content: "x"})
	}
	if got := ConversationWindow(msgs, 0); len(got) != 20 {
		t.Errorf("window length = %d, want default of 20 messages", len(got))
	}
}
