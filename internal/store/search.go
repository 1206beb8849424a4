package store

import (
	"context"
	"sort"
	"time"

	"github.com/mstolt/recall/internal/model"
	"github.com/mstolt/recall/internal/scoring"
)

// DefaultSearchCategories are searched when the caller names none:
// everything except core (always in the prompt anyway) and working.
var DefaultSearchCategories = []model.Category{
	model.Fact, model.Instruction, model.Summary, model.Episodic, model.Semantic,
}

// SearchOptions tune one retrieval call. Zero fields take the store's
// policy defaults.
type SearchOptions struct {
	Mood       string
	Threshold  float64
	Limit      int
	Categories []model.Category
}

// Result is a retrieved memory with its per-factor score breakdown.
type Result struct {
	model.Memory
	scoring.Factors
	Score float64 `json:"score"`
}

// Search ranks all live records against the query with the fused
// multi-factor score. When the embedding service is unavailable it degrades
// to keyword-only scoring over the same candidates — a required fallback,
// not an error. Every returned record has its access count bumped and the
// store is persisted afterward, so Search never returns an error either.
func (s *Store) Search(ctx context.Context, query string, o SearchOptions) []Result {
	threshold := o.Threshold
	if threshold == 0 {
		threshold = s.opts.SearchThreshold
	}
	limit := o.Limit
	if limit <= 0 {
		limit = s.opts.SearchLimit
	}
	cats := o.Categories
	if len(cats) == 0 {
		cats = DefaultSearchCategories
	}
	currentMood := o.Mood
	if currentMood == "" {
		currentMood = s.mood.Current(ctx)
	}

	// The embedding call happens before the lock is taken; a record inserted
	// while it is in flight is simply not seen by this search.
	queryVec, err := s.llm.Embed(ctx, query)
	if err != nil {
		s.log.Warn("embedding unavailable, falling back to keyword-only search", "error", err)
		queryVec = nil
	}

	catSet := make(map[model.Category]bool, len(cats))
	for _, c := range cats {
		catSet[c] = true
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []Result
	for _, m := range s.recs {
		if !catSet[m.Category] || m.Expired(now) {
			continue
		}
		var f scoring.Factors
		if queryVec == nil {
			k := scoring.KeywordOverlap(query, m.Text)
			f = scoring.Factors{Keyword: k, Final: k}
		} else {
			f = scoring.Score(s.opts.Weights, m, queryVec, query, currentMood, s.opts.RecencyDecay, now)
		}
		if f.Final > threshold {
			results = append(results, Result{Memory: *m, Factors: f, Score: f.Final})
		}
	}

	// Stable sort keeps insertion order on score ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if len(results) > 0 {
		hit := make(map[string]int, len(results))
		for i := range results {
			hit[results[i].ID] = i
		}
		for _, m := range s.recs {
			if i, ok := hit[m.ID]; ok {
				m.AccessCount++
				t := now
				m.LastRecalled = &t
				results[i].AccessCount = m.AccessCount
				results[i].LastRecalled = m.LastRecalled
			}
		}
		s.persistLocked(ctx)
	}

	return results
}

// SimilaritySearch is the legacy cosine-only retrieval path: no keyword or
// policy factors, no access tracking, and its own higher default threshold.
// Both defaults are reproduced behavior; do not unify them.
func (s *Store) SimilaritySearch(queryVec []float32, threshold float64, limit int) []Result {
	if len(queryVec) == 0 {
		return nil
	}
	if threshold == 0 {
		threshold = s.opts.SimilarityThreshold
	}
	if limit <= 0 {
		limit = s.opts.SimilarityLimit
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []Result
	for _, m := range s.recs {
		if m.Expired(now) {
			continue
		}
		score := scoring.Cosine(queryVec, m.Embedding)
		if score > threshold {
			results = append(results, Result{
				Memory:  *m,
				Factors: scoring.Factors{Vector: score, Final: score},
				Score:   score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
