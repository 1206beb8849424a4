package llm

import (
	"context"

	"github.com/mstolt/recall/internal/model"
)

// Static is a canned client for tests and offline runs. Zero-value errors
// make it always succeed; set EmbedErr/CompleteErr to simulate an outage.
type Static struct {
	Vec         []float32
	Reply       string
	EmbedErr    error
	CompleteErr error

	EmbedCalls    int
	CompleteCalls int
}

var _ Client = (*Static)(nil)

func (s *Static) Embed(ctx context.Context, text string) ([]float32, error) {
	s.EmbedCalls++
	if s.EmbedErr != nil {
		return nil, s.EmbedErr
	}
	return s.Vec, nil
}

func (s *Static) Complete(ctx context.Context, messages []model.Message) (string, error) {
	s.CompleteCalls++
	if s.CompleteErr != nil {
		return "", s.CompleteErr
	}
	return s.Reply, nil
}
