// Package scoring implements the pure relevance functions used to rank
// memories: vector similarity, keyword overlap, recency decay, importance
// normalization, emotional match, and their weighted fusion.
//
// Everything here is stateless. Wall-clock time is always an explicit
// argument, never read internally, so the same inputs produce the same score.
package scoring

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/mstolt/recall/internal/model"
)

// DefaultDecay is the exponential decay factor applied per day of age.
const DefaultDecay = 0.05

// Weights control how the per-factor scores fuse into a final score.
// They are policy, not constants: callers may override them from config.
type Weights struct {
	Vector     float64 `yaml:"vector"`
	Keyword    float64 `yaml:"keyword"`
	Importance float64 `yaml:"importance"`
	Recency    float64 `yaml:"recency"`
	Emotional  float64 `yaml:"emotional"`
}

// DefaultWeights returns the tuned fusion weights. They sum to 1.0.
func DefaultWeights() Weights {
	return Weights{
		Vector:     0.35,
		Keyword:    0.20,
		Importance: 0.15,
		Recency:    0.15,
		Emotional:  0.15,
	}
}

// Factors is the per-factor breakdown of a memory's relevance to a query.
type Factors struct {
	Vector     float64 `json:"vector_score"`
	Keyword    float64 `json:"keyword_score"`
	Importance float64 `json:"importance_score"`
	Recency    float64 `json:"recency_score"`
	Emotional  float64 `json:"emotional_score"`
	Final      float64 `json:"final_score"`
}

// Cosine computes cosine similarity between two vectors.
// Returns 0 if either vector is absent, zero-length, mismatched in length,
// or all-zero. That is a defensive default, not an error.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var stopWords = map[string]bool{
	"the": true, "is": true, "at": true, "which": true, "on": true,
	"a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "with": true, "to": true, "for": true, "of": true,
	"as": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "between": true,
	"under": true, "again": true, "further": true, "then": true,
	"once": true, "here": true, "there": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "each": true,
	"few": true, "more": true, "most": true, "other": true, "some": true,
	"such": true, "no": true, "nor": true, "not": true, "only": true,
	"own": true, "same": true, "so": true, "than": true, "too": true,
	"very": true, "can": true, "will": true, "just": true,
	"should": true, "now": true, "i": true, "me": true, "my": true,
	"myself": true, "we": true, "our": true, "you": true, "your": true,
	"he": true, "him": true, "his": true, "she": true, "her": true,
	"it": true, "its": true, "they": true, "them": true, "their": true,
	"what": true, "this": true, "that": true, "these": true, "those": true,
}

// Keywords tokenizes text for overlap scoring: lowercase, strip
// non-word characters, split on whitespace, drop stop words and tokens of
// length <= 2.
func Keywords(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	var out []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) > 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// KeywordOverlap scores how many of the query's keywords appear in text,
// normalized by the larger token set. Returns 0 if either set is empty.
func KeywordOverlap(query, text string) float64 {
	qk := Keywords(query)
	tk := Keywords(text)
	if len(qk) == 0 || len(tk) == 0 {
		return 0
	}
	set := make(map[string]bool, len(tk))
	for _, w := range tk {
		set[w] = true
	}
	matches := 0
	for _, w := range qk {
		if set[w] {
			matches++
		}
	}
	larger := len(qk)
	if len(tk) > larger {
		larger = len(tk)
	}
	return float64(matches) / float64(larger)
}

// Recency scores a timestamp with exponential decay: exp(-decay * daysSince).
// Equals 1 at age zero and strictly decreases with age.
func Recency(created time.Time, decay float64, now time.Time) float64 {
	days := now.Sub(created).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-decay * days)
}

// ImportanceNorm maps an importance value to [0,1].
// Unset importance counts as 1.
func ImportanceNorm(importance int) float64 {
	if importance <= 0 {
		importance = 1
	}
	s := float64(importance) / 10
	if s > 1 {
		return 1
	}
	return s
}

// EmotionalMatch returns 1 when the record's emotional context equals the
// current mood exactly, 0 otherwise (including when either side is absent).
func EmotionalMatch(recordContext, currentMood string) float64 {
	if recordContext == "" || currentMood == "" {
		return 0
	}
	if recordContext == currentMood {
		return 1
	}
	return 0
}

// Fuse combines per-factor scores into the final weighted score.
func (w Weights) Fuse(f Factors) float64 {
	return f.Vector*w.Vector +
		f.Keyword*w.Keyword +
		f.Importance*w.Importance +
		f.Recency*w.Recency +
		f.Emotional*w.Emotional
}

// Score computes the full multi-factor breakdown of m against a query.
// queryVec may be nil; the vector factor is then 0. A non-positive decay
// falls back to DefaultDecay.
func Score(w Weights, m *model.Memory, queryVec []float32, query, currentMood string, decay float64, now time.Time) Factors {
	if decay <= 0 {
		decay = DefaultDecay
	}
	f := Factors{
		Vector:     Cosine(queryVec, m.Embedding),
		Keyword:    KeywordOverlap(query, m.Text),
		Importance: ImportanceNorm(m.Importance),
		Recency:    Recency(m.CreatedAt, decay, now),
		Emotional:  EmotionalMatch(m.EmotionalContext, currentMood),
	}
	f.Final = w.Fuse(f)
	return f
}
