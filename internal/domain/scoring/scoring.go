// Package scoring defines the scorer contract and its heuristic and
// model-backed implementations.
package scoring

import (
	"context"

	"github.com/okian/gitstart/internal/domain/model"
)

// Input is what a scorer sees of a subject.
type Input struct {
	Kind     model.Kind
	Language string
	Content  []byte
	Labels   []string
}

// InputFromSubject builds the scorer input for a subject.
func InputFromSubject(s model.Subject) Input {
	return Input{Kind: s.Kind, Language: s.Language, Content: s.Content, Labels: s.Labels}
}

// Scorer computes one raw score, honoring ctx for cancellation.
type Scorer interface {
	Name() string
	Score(ctx context.Context, in Input) (model.ScoreResult, error)
}
