package mood

import (
	"context"
	"errors"
	"testing"

	"github.com/mstolt/recall/internal/model"
)

type fakeLoader struct {
	state *model.EmotionState
	err   error
	ctx   context.Context
}

func (f *fakeLoader) LoadEmotion(ctx context.Context) (*model.EmotionState, error) {
	f.ctx = ctx
	return f.state, f.err
}

func TestStatic(t *testing.T) {
	if got := Static("cheerful").Current(context.Background()); got != "cheerful" {
		t.Errorf("got %q", got)
	}
}

func TestStored(t *testing.T) {
	cases := []struct {
		name   string
		loader fakeLoader
		want   string
	}{
		{"persisted mood", fakeLoader{state: &model.EmotionState{Mood: "excited"}}, "excited"},
		{"no state yet", fakeLoader{}, DefaultMood},
		{"empty mood", fakeLoader{state: &model.EmotionState{}}, DefaultMood},
		{"load failure", fakeLoader{err: errors.New("db closed")}, DefaultMood},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromStore(&tc.loader).Current(context.Background()); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStored_PropagatesContext(t *testing.T) {
	loader := &fakeLoader{state: &model.EmotionState{Mood: "calm"}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	FromStore(loader).Current(ctx)
	if loader.ctx != ctx {
		t.Error("caller context did not reach the state loader")
	}
}
