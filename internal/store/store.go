// Package store owns the in-memory memory collection and its durable
// mirror: CRUD, category limit enforcement, ranked retrieval, forgetting,
// consolidation, and context assembly.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mstolt/recall/internal/llm"
	"github.com/mstolt/recall/internal/model"
	"github.com/mstolt/recall/internal/mood"
	"github.com/mstolt/recall/internal/scoring"
)

// Options are the tunable policy values of the store. Zero fields take the
// defaults from DefaultOptions.
type Options struct {
	Weights scoring.Weights

	// SearchThreshold is the fused-score cutoff for ranked retrieval.
	SearchThreshold float64
	// SimilarityThreshold is the cutoff for the cosine-only legacy path.
	// The two defaults intentionally differ; both are reproduced behavior.
	SimilarityThreshold float64
	SearchLimit         int
	SimilarityLimit     int
	RecencyDecay        float64

	ConsolidateAfter time.Duration
	ConsolidateMin   int
}

// DefaultOptions returns the tuned policy defaults.
func DefaultOptions() Options {
	return Options{
		Weights:             scoring.DefaultWeights(),
		SearchThreshold:     0.3,
		SimilarityThreshold: 0.7,
		SearchLimit:         5,
		SimilarityLimit:     3,
		RecencyDecay:        scoring.DefaultDecay,
		ConsolidateAfter:    7 * 24 * time.Hour,
		ConsolidateMin:      3,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Weights == (scoring.Weights{}) {
		o.Weights = def.Weights
	}
	if o.SearchThreshold == 0 {
		o.SearchThreshold = def.SearchThreshold
	}
	if o.SimilarityThreshold == 0 {
		o.SimilarityThreshold = def.SimilarityThreshold
	}
	if o.SearchLimit == 0 {
		o.SearchLimit = def.SearchLimit
	}
	if o.SimilarityLimit == 0 {
		o.SimilarityLimit = def.SimilarityLimit
	}
	if o.RecencyDecay == 0 {
		o.RecencyDecay = def.RecencyDecay
	}
	if o.ConsolidateAfter == 0 {
		o.ConsolidateAfter = def.ConsolidateAfter
	}
	if o.ConsolidateMin == 0 {
		o.ConsolidateMin = def.ConsolidateMin
	}
	return o
}

// Store is the single owned aggregate holding every live memory record.
// The DB is a mirror written on every mutation and read once at startup.
//
// Mutations hold mu for the whole mutate-and-persist unit. Retrieval fetches
// the query embedding before taking the lock, so a search can miss a record
// inserted while the embedding request was in flight. That eventual
// consistency is accepted; do not "fix" it with a lock around the call.
type Store struct {
	mu   sync.Mutex
	recs []*model.Memory

	db      *DB
	llm     llm.Client
	mood    mood.Provider
	opts    Options
	log     *slog.Logger
	entropy *rand.Rand
}

// New loads the mirrored collection and returns the store. A load failure
// is logged and yields an empty store: the product stays usable.
func New(ctx context.Context, db *DB, client llm.Client, moodp mood.Provider, opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if moodp == nil {
		moodp = mood.FromStore(db)
	}
	s := &Store{
		db:      db,
		llm:     client,
		mood:    moodp,
		opts:    opts.withDefaults(),
		log:     logger,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	mems, err := db.LoadMemories(ctx)
	if err != nil {
		logger.Error("load memories failed, starting empty", "error", err)
		return s
	}
	for i := range mems {
		m := mems[i]
		s.recs = append(s.recs, &m)
	}
	logger.Info("memory store loaded", "count", len(s.recs))
	return s
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// persistLocked mirrors the collection to the database. Caller holds mu.
// Write failures are logged and returned, but the in-memory mutation is
// never rolled back: in-memory state is authoritative within a session.
func (s *Store) persistLocked(ctx context.Context) error {
	snap := make([]model.Memory, len(s.recs))
	for i, m := range s.recs {
		snap[i] = *m
	}
	if err := s.db.SaveMemories(ctx, snap); err != nil {
		s.log.Error("persist memories failed", "error", err, "count", len(snap))
		return err
	}
	return nil
}

// AddParams are the optional attributes of a new memory.
type AddParams struct {
	Category         model.Category
	Importance       int // 0 means the category default
	Tags             []string
	EmotionalContext string
	Source           string
	ExpiresAt        *time.Time
}

// Add stores a new memory record. If the category is at its population
// limit, the oldest records are evicted first so the new record is never
// itself a victim. The record is kept in memory even when the mirror write
// fails; that failure is surfaced, not swallowed.
func (s *Store) Add(ctx context.Context, text string, embedding []float32, p AddParams) (*model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(ctx, text, embedding, p)
}

func (s *Store) addLocked(ctx context.Context, text string, embedding []float32, p AddParams) (*model.Memory, error) {
	if p.Category == "" {
		p.Category = model.Fact
	}
	if !p.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", p.Category)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("memory text is empty")
	}

	policy := model.Policies[p.Category]
	importance := p.Importance
	if importance == 0 {
		importance = policy.DefaultImportance
	}
	if importance < 1 {
		importance = 1
	}
	if importance > 10 {
		importance = 10
	}
	source := p.Source
	if source == "" {
		source = "conversation"
	}

	s.evictForLocked(p.Category, policy)

	now := time.Now()
	rec := &model.Memory{
		ID:               s.newID(),
		Text:             text,
		Embedding:        embedding,
		Category:         p.Category,
		Tags:             p.Tags,
		Importance:       importance,
		EmotionalContext: p.EmotionalContext,
		Source:           source,
		ExpiresAt:        p.ExpiresAt,
		CreatedAt:        now,
		DateLabel:        now.Format("2006-01-02"),
	}
	s.recs = append(s.recs, rec)

	s.log.Info("memory saved", "category", rec.Category, "id", rec.ID)
	if err := s.persistLocked(ctx); err != nil {
		return rec, fmt.Errorf("persist: %w", err)
	}
	return rec, nil
}

// evictForLocked makes room for one insertion into cat: when the category
// is at or above its limit, the oldest members beyond maxCount-1 go.
// Unbounded and protected categories are never touched; only explicit
// deletion removes those records.
func (s *Store) evictForLocked(cat model.Category, policy model.Policy) {
	if policy.MaxCount == 0 || cat.Protected() {
		return
	}
	// recs is append-only and loaded oldest-first, so category members come
	// out in creation order already.
	var members []*model.Memory
	for _, m := range s.recs {
		if m.Category == cat {
			members = append(members, m)
		}
	}
	if len(members) < policy.MaxCount {
		return
	}
	drop := make(map[string]bool)
	for _, m := range members[:len(members)-(policy.MaxCount-1)] {
		drop[m.ID] = true
	}
	kept := s.recs[:0]
	for _, m := range s.recs {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	s.recs = kept
	s.log.Info("category limit reached, evicted oldest", "category", cat, "removed", len(drop))
}

// Delete removes a record by id. Reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.recs[:0]
	found := false
	for _, m := range s.recs {
		if m.ID == id {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	s.recs = kept
	if found {
		s.persistLocked(ctx)
	}
	return found
}

// Clear removes every record, or every non-core record when keepCore is set.
func (s *Store) Clear(ctx context.Context, keepCore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepCore {
		kept := s.recs[:0]
		for _, m := range s.recs {
			if m.Category == model.Core {
				kept = append(kept, m)
			}
		}
		s.recs = kept
	} else {
		s.recs = nil
	}
	s.persistLocked(ctx)
}

// List returns a copy of every record, including expired ones.
func (s *Store) List() []model.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Memory, len(s.recs))
	for i, m := range s.recs {
		out[i] = *m
	}
	return out
}

// ByCategory returns copies of every record in the given category.
func (s *Store) ByCategory(cat model.Category) []model.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Memory
	for _, m := range s.recs {
		if m.Category == cat {
			out = append(out, *m)
		}
	}
	return out
}

// Instructions returns every instruction record.
func (s *Store) Instructions() []model.Memory {
	return s.ByCategory(model.Instruction)
}

// Count returns the number of records, including expired ones.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// Stats returns the record count per category, with zero entries for
// empty categories.
func (s *Store) Stats() map[model.Category]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		stats[c] = 0
	}
	for _, m := range s.recs {
		stats[m.Category]++
	}
	return stats
}
