package store

import (
	"context"
	"testing"
	"time"

	"github.com/mstolt/recall/internal/llm"
	"github.com/mstolt/recall/internal/model"
	"github.com/mstolt/recall/internal/mood"
)

func TestSearch_FusedRanking(t *testing.T) {
	// The canned client returns the same vector for every embed call, so
	// every stored record gets a perfect cosine match against the query.
	client := &llm.Static{Vec: []float32{0.6, 0.8}}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	vec, _ := client.Embed(ctx, "user loves hiking")
	s.Add(ctx, "user loves hiking", vec, AddParams{Importance: 8})
	s.Add(ctx, "user dislikes mornings", vec, AddParams{Importance: 2})

	results := s.Search(ctx, "user loves hiking", SearchOptions{})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "user loves hiking" {
		t.Errorf("top result = %q, want the matching text", results[0].Text)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %f then %f", results[0].Score, results[1].Score)
	}
	if results[0].Vector < 0.99 {
		t.Errorf("vector factor = %f, want ~1 for identical vectors", results[0].Vector)
	}
}

func TestSearch_BumpsAccessAndPersists(t *testing.T) {
	client := &llm.Static{Vec: []float32{1, 0}}
	logger := testLogger()
	db, err := Open(t.TempDir()+"/test.db", logger)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s := New(ctx, db, client, mood.Static("neutral"), Options{}, logger)
	mem, _ := s.Add(ctx, "user loves hiking", []float32{1, 0}, AddParams{})

	results := s.Search(ctx, "user loves hiking", SearchOptions{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].AccessCount != 1 {
		t.Errorf("access count = %d, want 1", results[0].AccessCount)
	}
	if results[0].LastRecalled == nil {
		t.Error("expected last recalled to be set")
	}

	// Access tracking survives a reload.
	recs, err := db.LoadMemories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != mem.ID {
		t.Fatalf("unexpected persisted records: %v", recs)
	}
	if recs[0].AccessCount != 1 {
		t.Errorf("persisted access count = %d, want 1", recs[0].AccessCount)
	}
	db.Close()
}

func TestSearch_ExcludesExpired(t *testing.T) {
	client := &llm.Static{Vec: []float32{1, 0}}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	s.Add(ctx, "stale reminder", []float32{1, 0}, AddParams{ExpiresAt: &past})

	if results := s.Search(ctx, "stale reminder", SearchOptions{}); len(results) != 0 {
		t.Errorf("expected no results for expired record, got %d", len(results))
	}
}

func TestSearch_DefaultCategoriesSkipCoreAndWorking(t *testing.T) {
	client := &llm.Static{Vec: []float32{1, 0}}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	s.Add(ctx, "identity belief", []float32{1, 0}, AddParams{Category: model.Core})
	s.Add(ctx, "scratch note", []float32{1, 0}, AddParams{Category: model.Working})
	s.Add(ctx, "stable fact", []float32{1, 0}, AddParams{Category: model.Fact})

	results := s.Search(ctx, "anything", SearchOptions{})
	if len(results) != 1 {
		t.Fatalf("expected only the fact, got %d results", len(results))
	}
	if results[0].Category != model.Fact {
		t.Errorf("category = %s, want fact", results[0].Category)
	}

	// But asking for core explicitly finds it.
	results = s.Search(ctx, "anything", SearchOptions{Categories: []model.Category{model.Core}})
	if len(results) != 1 || results[0].Category != model.Core {
		t.Errorf("explicit core search returned %v", results)
	}
}

func TestSearch_KeywordFallback(t *testing.T) {
	// Embedding down: keyword overlap alone carries the score.
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.Add(ctx, "user likes hiking", nil, AddParams{})

	// "hiking" overlaps 1 of 3 content words: 0.333 clears the 0.3 threshold.
	results := s.Search(ctx, "hiking", SearchOptions{})
	if len(results) != 1 {
		t.Fatalf("expected keyword fallback hit, got %d results", len(results))
	}
	if results[0].Vector != 0 {
		t.Errorf("vector factor = %f, want 0 without embeddings", results[0].Vector)
	}
	if results[0].Keyword == 0 {
		t.Error("keyword factor should be non-zero")
	}

	// No shared word: nothing clears the threshold.
	if results := s.Search(ctx, "hobbies", SearchOptions{}); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSearch_LimitApplies(t *testing.T) {
	client := &llm.Static{Vec: []float32{1, 0}}
	s, _ := newTestStore(t, client)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		s.Add(ctx, "user loves hiking", []float32{1, 0}, AddParams{})
	}
	if results := s.Search(ctx, "user loves hiking", SearchOptions{}); len(results) != 5 {
		t.Errorf("expected default limit of 5, got %d", len(results))
	}
	if results := s.Search(ctx, "user loves hiking", SearchOptions{Limit: 2}); len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestSimilaritySearch(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.Add(ctx, "exact match", []float32{1, 0}, AddParams{})
	s.Add(ctx, "orthogonal", []float32{0, 1}, AddParams{})

	results := s.SimilaritySearch([]float32{1, 0}, 0, 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result above 0.7, got %d", len(results))
	}
	if results[0].Text != "exact match" {
		t.Errorf("result = %q", results[0].Text)
	}
	if results[0].Score < 0.99 {
		t.Errorf("score = %f, want ~1", results[0].Score)
	}
	// Legacy path does not touch access tracking.
	if results[0].AccessCount != 0 {
		t.Errorf("access count = %d, want 0", results[0].AccessCount)
	}

	if results := s.SimilaritySearch(nil, 0, 0); results != nil {
		t.Errorf("nil query vector should return nil, got %v", results)
	}
}
