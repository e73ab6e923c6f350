package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/ranking"
)

// AnalyzeRequest asks for the difficulty of one code artifact or issue.
// When only ID is set, the content is looked up in the catalog.
type AnalyzeRequest struct {
	Kind     model.Kind `json:"kind"`
	ID       string     `json:"id"`
	Language string     `json:"language,omitempty"`
	Content  string     `json:"content,omitempty"`
	Title    string     `json:"title,omitempty"`
	Body     string     `json:"body,omitempty"`
	Labels   []string   `json:"labels,omitempty"`
}

// RecommendRequest asks for issues ranked for one contributor. An empty
// IssueIDs considers every issue in the catalog.
type RecommendRequest struct {
	ProfileID string   `json:"profile_id"`
	IssueIDs  []string `json:"issue_ids,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// WarmRequest asks for issues to be scored in the background. Issues may be
// given inline or by catalog ID.
type WarmRequest struct {
	IssueIDs []string          `json:"issue_ids,omitempty"`
	Issues   []model.IssueText `json:"issues,omitempty"`
}

// WarmResult reports what happened to each issue of a WarmRequest.
type WarmResult struct {
	Queued     []string `json:"queued"`
	Duplicates []string `json:"duplicates,omitempty"`
	Rejected   []string `json:"rejected,omitempty"` // queue full or closed
	Invalid    []string `json:"invalid,omitempty"`  // no ID or no text
	JobIDs     []string `json:"job_ids,omitempty"`
}

// subject resolves the request into a subject, consulting the catalog when
// the request carries only an ID.
func (s *Service) subject(ctx context.Context, req AnalyzeRequest) (model.Subject, error) {
	const op = "service.analyze"
	kind := model.Kind(strings.ToLower(string(req.Kind)))
	if kind == "" {
		kind = model.KindCode
	}

	switch kind {
	case model.KindCode:
		a := model.CodeArtifact{ID: req.ID, Content: req.Content, Language: req.Language}
		if a.Content == "" && a.ID != "" {
			found, err := s.catalog.Artifact(ctx, a.ID)
			if err != nil {
				return model.Subject{}, err
			}
			a = found
			if req.Language != "" {
				a.Language = req.Language
			}
		}
		return model.SubjectFromArtifact(a), nil

	case model.KindIssue:
		is := model.IssueText{ID: req.ID, Title: req.Title, Body: req.Body, Labels: req.Labels, Language: req.Language}
		if is.Title == "" && is.Body == "" && is.ID != "" {
			found, err := s.catalog.Issue(ctx, is.ID)
			if err != nil {
				return model.Subject{}, err
			}
			is = found
		}
		return issueSubject(is), nil

	default:
		return model.Subject{}, model.WrapKind(op, model.ErrInvalidInput, fmt.Errorf("unknown kind %q", req.Kind))
	}
}

// issueSubject builds an issue subject with its detected language.
func issueSubject(is model.IssueText) model.Subject {
	sub := model.SubjectFromIssue(is)
	if sub.Language == "" {
		sub.Language = ranking.DetectLanguage(is)
	}
	return sub
}
