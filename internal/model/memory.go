// Package model defines the core memory data types and retention policy tables.
package model

import "time"

// Category classifies a memory and selects its retention policy.
type Category string

const (
	Core        Category = "core"
	Episodic    Category = "episodic"
	Semantic    Category = "semantic"
	Working     Category = "working"
	Fact        Category = "fact"
	Instruction Category = "instruction"
	Summary     Category = "summary"
)

// Categories lists every valid category.
var Categories = []Category{Core, Episodic, Semantic, Working, Fact, Instruction, Summary}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := Policies[c]
	return ok
}

// Protected reports whether automatic forgetting and limit enforcement must
// never remove records of this category. Only explicit deletion removes them.
func (c Category) Protected() bool {
	return c == Core || c == Instruction
}

const day = 24 * time.Hour

// Policy bounds a category's lifetime and population.
// Zero values mean unbounded.
type Policy struct {
	MaxAge            time.Duration
	MaxCount          int
	DefaultImportance int
}

// Policies is the static per-category retention table.
var Policies = map[Category]Policy{
	Core:        {MaxAge: 0, MaxCount: 0, DefaultImportance: 10},
	Episodic:    {MaxAge: 90 * day, MaxCount: 100, DefaultImportance: 5},
	Semantic:    {MaxAge: 180 * day, MaxCount: 500, DefaultImportance: 7},
	Fact:        {MaxAge: 60 * day, MaxCount: 200, DefaultImportance: 5},
	Working:     {MaxAge: day, MaxCount: 10, DefaultImportance: 3},
	Instruction: {MaxAge: 0, MaxCount: 50, DefaultImportance: 9},
	Summary:     {MaxAge: 365 * day, MaxCount: 50, DefaultImportance: 6},
}

func init() {
	for _, c := range Categories {
		if _, ok := Policies[c]; !ok {
			panic("model: missing retention policy for category " + string(c))
		}
	}
}

// Tier is a forgetting threshold. A record survives the forgetting pass if it
// is younger than AgeDays or has been recalled at least MinAccess times.
type Tier struct {
	AgeDays   float64
	MinAccess int
}

var (
	TierLow    = Tier{AgeDays: 30, MinAccess: 2}
	TierMedium = Tier{AgeDays: 90, MinAccess: 5}
	TierHigh   = Tier{AgeDays: 365, MinAccess: 10}
)

// TierFor selects the forgetting tier for an importance value.
func TierFor(importance int) Tier {
	switch {
	case importance >= 7:
		return TierHigh
	case importance >= 4:
		return TierMedium
	default:
		return TierLow
	}
}

// Memory is one stored memory record.
type Memory struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	Embedding        []float32  `json:"embedding,omitempty"`
	Category         Category   `json:"category"`
	Tags             []string   `json:"tags,omitempty"`
	Importance       int        `json:"importance"`
	EmotionalContext string     `json:"emotional_context,omitempty"`
	Source           string     `json:"source"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	AccessCount      int        `json:"access_count"`
	LastRecalled     *time.Time `json:"last_recalled,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	DateLabel        string     `json:"date"`
}

// Expired reports whether the record's expiry has passed at now.
// Expired records stay in the store until a maintenance pass removes them,
// but they never appear in ranked retrieval results.
func (m *Memory) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// Message is one chat turn sent to the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProfileEntry is a learned key/value fact about the user.
type ProfileEntry struct {
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Entity is a named person, place, or thing mentioned in conversation.
type Entity struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Relationship  string    `json:"relationship,omitempty"`
	Description   string    `json:"description,omitempty"`
	LastMentioned time.Time `json:"last_mentioned"`
}

// LogEntry is one appended conversation log row.
type LogEntry struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// EmotionState is the singleton mood blob owned by the emotion engine.
// The memory subsystem only reads Mood.
type EmotionState struct {
	Mood            string    `json:"mood"`
	LastInteraction time.Time `json:"lastInteraction"`
	BondScore       int       `json:"bondScore"`
	MoodHistory     []string  `json:"moodHistory"`
}
