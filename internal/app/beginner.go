package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/pkg/logger"
)

// DefaultBeginnerLimit is the list size when the caller gives none.
const DefaultBeginnerLimit = 20

// BeginnerIssue is one catalog issue judged beginner friendly.
type BeginnerIssue struct {
	Issue       model.IssueText       `json:"issue"`
	Score       model.NormalizedScore `json:"score"`
	Suggestions []string              `json:"suggestions,omitempty"`
}

// BeginnerList is the answer to BeginnerIssues. Issues that could not be
// scored are listed as unscored and the list is marked partial.
type BeginnerList struct {
	Items    []BeginnerIssue `json:"items"`
	Partial  bool            `json:"partial"`
	Unscored []string        `json:"unscored,omitempty"`
}

// BeginnerIssues scores every catalog issue and returns up to limit of the
// beginner friendly ones, easiest first. A zero limit means
// DefaultBeginnerLimit.
func (s *Service) BeginnerIssues(ctx context.Context, limit int) (BeginnerList, error) {
	const op = "service.beginner_issues"
	if limit < 0 {
		return BeginnerList{}, model.WrapKind(op, model.ErrInvalidInput, errors.New("limit must not be negative"))
	}
	if limit == 0 {
		limit = DefaultBeginnerLimit
	}

	issues, err := s.catalog.Issues(ctx)
	if err != nil {
		return BeginnerList{}, err
	}
	if len(issues) > s.maxCandidates {
		return BeginnerList{}, model.WrapKind(op, model.ErrInvalidInput,
			fmt.Errorf("%w: %d > %d", ErrTooManyCandidates, len(issues), s.maxCandidates))
	}

	subjects := make([]model.Subject, len(issues))
	for i, is := range issues {
		subjects[i] = issueSubject(is)
	}
	batch := s.pipeline.ScoreMany(ctx, subjects, s.scorerVersion)

	items := make([]BeginnerIssue, 0, len(issues))
	for _, is := range issues {
		a, ok := batch.Analyses[is.ID]
		if !ok || !a.BeginnerFriendly {
			continue
		}
		items = append(items, BeginnerIssue{Issue: is, Score: a.Normalized, Suggestions: a.Suggestions})
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score.Difficulty != b.Score.Difficulty {
			return a.Score.Difficulty < b.Score.Difficulty
		}
		if a.Score.Confidence != b.Score.Confidence {
			return a.Score.Confidence > b.Score.Confidence
		}
		return a.Issue.ID < b.Issue.ID
	})
	if len(items) > limit {
		items = items[:limit]
	}

	s.logger.Info(ctx, "beginner issues served",
		logger.Int("items", len(items)),
		logger.Int("unscored", len(batch.Unscored)),
	)
	return BeginnerList{
		Items:    items,
		Partial:  batch.Partial,
		Unscored: batch.Unscored,
	}, nil
}
