package store

import (
	"context"
	"strings"
	"time"

	"github.com/mstolt/recall/internal/model"
)

// EnforceRetention runs the forgetting pass: every non-protected record is
// kept only while it is younger than its importance tier's age limit or has
// been recalled often enough. Returns the number of records removed; the
// mirror is written once when anything was.
func (s *Store) EnforceRetention(ctx context.Context) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*model.Memory, 0, len(s.recs))
	removed := 0
	for _, m := range s.recs {
		if m.Category.Protected() {
			kept = append(kept, m)
			continue
		}
		days := now.Sub(m.CreatedAt).Hours() / 24
		tier := model.TierFor(m.Importance)
		if days < tier.AgeDays || m.AccessCount >= tier.MinAccess {
			kept = append(kept, m)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.recs = kept
		s.persistLocked(ctx)
		s.log.Info("forgetting applied", "removed", removed, "remaining", len(kept))
	}
	return removed
}

const consolidationSystem = "You are a helpful assistant that creates concise, warm summaries of conversations."

// Consolidate folds old episodic records into one summary record. Fewer
// than ConsolidateMin eligible records is a no-op, and nothing is removed
// unless the completion service actually returned a summary: the pass is
// all-or-nothing. Returns the number of records consolidated away.
func (s *Store) Consolidate(ctx context.Context) int {
	cutoff := time.Now().Add(-s.opts.ConsolidateAfter)

	s.mu.Lock()
	var ids []string
	var texts []string
	for _, m := range s.recs {
		if m.Category == model.Episodic && m.CreatedAt.Before(cutoff) {
			ids = append(ids, m.ID)
			texts = append(texts, m.Text)
		}
	}
	s.mu.Unlock()

	if len(ids) < s.opts.ConsolidateMin {
		s.log.Debug("not enough old episodic memories to consolidate", "eligible", len(ids))
		return 0
	}

	prompt := "Summarize these conversation highlights into 2-3 sentences that capture the key themes and user preferences:\n\n" +
		strings.Join(texts, "\n\n")
	summary, err := s.llm.Complete(ctx, []model.Message{
		{Role: "system", Content: consolidationSystem},
		{Role: "user", Content: prompt},
	})
	if err != nil || strings.TrimSpace(summary) == "" {
		s.log.Warn("consolidation skipped, completion unavailable", "error", err)
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent writer may have touched the collection while the
	// completion was in flight; only drop ids that still exist.
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]*model.Memory, 0, len(s.recs))
	removed := 0
	for _, m := range s.recs {
		if drop[m.ID] {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	s.recs = kept

	if _, err := s.addLocked(ctx, summary, nil, AddParams{
		Category:   model.Summary,
		Importance: 6,
		Source:     "consolidation",
	}); err != nil {
		s.log.Error("store consolidation summary", "error", err)
	}
	s.log.Info("memory consolidation complete", "consolidated", removed)
	return removed
}

// SummarizeSession asks the completion service for a short summary of a
// conversation transcript and stores it as a summary record. An empty
// transcript or an unavailable service is a silent no-op.
func (s *Store) SummarizeSession(ctx context.Context, transcript string) *model.Memory {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}
	prompt := "Create a brief, warm summary (1-2 sentences) of this conversation that captures key topics and user mood:\n\n" +
		transcript
	summary, err := s.llm.Complete(ctx, []model.Message{
		{Role: "system", Content: "You create concise, friendly conversation summaries."},
		{Role: "user", Content: prompt},
	})
	if err != nil || strings.TrimSpace(summary) == "" {
		s.log.Warn("session summarization skipped", "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.addLocked(ctx, summary, nil, AddParams{
		Category:   model.Summary,
		Importance: 6,
		Source:     "session",
	})
	if err != nil {
		s.log.Error("store session summary", "error", err)
	}
	return rec
}
