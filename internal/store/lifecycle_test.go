package store

import (
	"context"
	"testing"
	"time"

	"github.com/mstolt/recall/internal/llm"
	"github.com/mstolt/recall/internal/model"
)

// backdate rewrites a record's creation time directly; retention and
// consolidation both key off CreatedAt.
func backdate(s *Store, id string, age time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.recs {
		if m.ID == id {
			m.CreatedAt = time.Now().Add(-age)
		}
	}
}

func TestEnforceRetention(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	// Protected categories never age out.
	core, _ := s.Add(ctx, "identity belief", nil, AddParams{Category: model.Core})
	rule, _ := s.Add(ctx, "always greet warmly", nil, AddParams{Category: model.Instruction})
	backdate(s, core.ID, 10*365*24*time.Hour)
	backdate(s, rule.ID, 10*365*24*time.Hour)

	// Importance 2 is the low tier: 30 days, 2 recalls.
	fresh, _ := s.Add(ctx, "fresh low-value note", nil, AddParams{Importance: 2})
	stale, _ := s.Add(ctx, "stale low-value note", nil, AddParams{Importance: 2})
	backdate(s, stale.ID, 60*24*time.Hour)

	// Same age, but recalled often enough to stay.
	busy, _ := s.Add(ctx, "stale but recalled note", nil, AddParams{Importance: 2})
	backdate(s, busy.ID, 60*24*time.Hour)
	s.mu.Lock()
	for _, m := range s.recs {
		if m.ID == busy.ID {
			m.AccessCount = 2
		}
	}
	s.mu.Unlock()

	removed := s.EnforceRetention(ctx)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	ids := make(map[string]bool)
	for _, m := range s.List() {
		ids[m.ID] = true
	}
	if !ids[core.ID] || !ids[rule.ID] {
		t.Error("protected records must survive retention")
	}
	if !ids[fresh.ID] {
		t.Error("young record must survive retention")
	}
	if !ids[busy.ID] {
		t.Error("frequently recalled record must survive retention")
	}
	if ids[stale.ID] {
		t.Error("old unrecalled record should be forgotten")
	}

	// Second pass finds nothing left to forget.
	if removed := s.EnforceRetention(ctx); removed != 0 {
		t.Errorf("second pass removed %d records", removed)
	}
}

func TestEnforceRetention_HighTierIsGenerous(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	// Importance 8 gets a year before forgetting applies.
	mem, _ := s.Add(ctx, "important fact", nil, AddParams{Importance: 8})
	backdate(s, mem.ID, 200*24*time.Hour)

	if removed := s.EnforceRetention(ctx); removed != 0 {
		t.Errorf("removed = %d, want 0 for 200-day-old high-importance record", removed)
	}

	backdate(s, mem.ID, 400*24*time.Hour)
	if removed := s.EnforceRetention(ctx); removed != 1 {
		t.Errorf("removed = %d, want 1 once past the tier age", removed)
	}
}

func TestConsolidate(t *testing.T) {
	client := &llm.Static{Reply: "We talked about hiking plans and favorite trails."}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		mem, _ := s.Add(ctx, "talked about trails", nil, AddParams{Category: model.Episodic})
		backdate(s, mem.ID, 10*24*time.Hour)
		ids = append(ids, mem.ID)
	}
	// Recent episodic record is not eligible.
	recent, _ := s.Add(ctx, "talked this morning", nil, AddParams{Category: model.Episodic})

	removed := s.Consolidate(ctx)
	if removed != 3 {
		t.Fatalf("consolidated = %d, want 3", removed)
	}
	if client.CompleteCalls != 1 {
		t.Errorf("completion calls = %d, want 1", client.CompleteCalls)
	}

	left := make(map[string]model.Memory)
	for _, m := range s.List() {
		left[m.ID] = m
	}
	for _, id := range ids {
		if _, ok := left[id]; ok {
			t.Error("consolidated episodic record still present")
		}
	}
	if _, ok := left[recent.ID]; !ok {
		t.Error("recent episodic record must survive")
	}

	summaries := s.ByCategory(model.Summary)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary record, got %d", len(summaries))
	}
	if summaries[0].Text != client.Reply {
		t.Errorf("summary text = %q", summaries[0].Text)
	}
	if summaries[0].Importance != 6 {
		t.Errorf("summary importance = %d, want 6", summaries[0].Importance)
	}
	if summaries[0].Source != "consolidation" {
		t.Errorf("summary source = %q", summaries[0].Source)
	}
}

func TestConsolidate_NotEnoughEligible(t *testing.T) {
	client := &llm.Static{Reply: "should never be asked"}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		mem, _ := s.Add(ctx, "old chat", nil, AddParams{Category: model.Episodic})
		backdate(s, mem.ID, 10*24*time.Hour)
	}

	if removed := s.Consolidate(ctx); removed != 0 {
		t.Errorf("consolidated = %d, want 0 below minimum", removed)
	}
	if client.CompleteCalls != 0 {
		t.Errorf("completion calls = %d, want 0", client.CompleteCalls)
	}
	if s.Count() != 2 {
		t.Errorf("count = %d, want the 2 records untouched", s.Count())
	}
}

func TestConsolidate_AllOrNothing(t *testing.T) {
	// Completion outage: eligible records must not be dropped.
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mem, _ := s.Add(ctx, "old chat", nil, AddParams{Category: model.Episodic})
		backdate(s, mem.ID, 10*24*time.Hour)
	}

	if removed := s.Consolidate(ctx); removed != 0 {
		t.Errorf("consolidated = %d, want 0 when completion fails", removed)
	}
	if s.Count() != 3 {
		t.Errorf("count = %d, want 3 untouched records", s.Count())
	}
}

func TestSummarizeSession(t *testing.T) {
	client := &llm.Static{Reply: "A friendly chat about weekend plans."}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	rec := s.SummarizeSession(ctx, "User: any plans?\nAssistant: maybe a hike!")
	if rec == nil {
		t.Fatal("expected a summary record")
	}
	if rec.Category != model.Summary || rec.Source != "session" || rec.Importance != 6 {
		t.Errorf("unexpected record: %+v", rec)
	}

	if rec := s.SummarizeSession(ctx, "   "); rec != nil {
		t.Error("empty transcript should be a no-op")
	}
}

func TestSummarizeSession_ServiceDown(t *testing.T) {
	s, _ := newTestStore(t, nil)
	if rec := s.SummarizeSession(context.Background(), "some transcript"); rec != nil {
		t.Error("expected nil when completion is unavailable")
	}
}
