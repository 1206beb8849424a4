// Package mood exposes the companion's current mood to memory retrieval.
// The emotion engine owns the state; this package only reads it.
package mood

import (
	"context"

	"github.com/mstolt/recall/internal/model"
)

// DefaultMood is used when no emotion state has been persisted yet.
const DefaultMood = "neutral"

// Provider reports the current mood label. The context covers the
// underlying state read, which may hit storage.
type Provider interface {
	Current(ctx context.Context) string
}

// Static is a fixed mood, for tests.
type Static string

func (s Static) Current(ctx context.Context) string { return string(s) }

// StateLoader is satisfied by the persistence layer.
type StateLoader interface {
	LoadEmotion(ctx context.Context) (*model.EmotionState, error)
}

// Stored reads the mood from the persisted emotion state blob.
type Stored struct {
	src StateLoader
}

// FromStore wraps a persistence handle as a mood provider.
func FromStore(src StateLoader) *Stored {
	return &Stored{src: src}
}

// Current returns the persisted mood, or DefaultMood when the state is
// absent or unreadable.
func (p *Stored) Current(ctx context.Context) string {
	st, err := p.src.LoadEmotion(ctx)
	if err != nil || st == nil || st.Mood == "" {
		return DefaultMood
	}
	return st.Mood
}
