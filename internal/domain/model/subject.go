// Package model contains domain models passed between layers.
package model

import "strings"

// Kind selects how content is normalized and scored.
type Kind string

// Supported subject kinds.
const (
	KindCode  Kind = "code"
	KindIssue Kind = "issue"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCode || k == KindIssue
}

// CodeArtifact is a source file or blob submitted for analysis.
type CodeArtifact struct {
	ID       string `json:"id" yaml:"id"`             // path or blob reference
	Content  string `json:"content" yaml:"content"`   // raw source
	Language string `json:"language" yaml:"language"` // e.g. "go", "python"
}

// IssueText is an issue description submitted for analysis.
type IssueText struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Body     string   `json:"body" yaml:"body"`
	Labels   []string `json:"labels,omitempty" yaml:"labels"`
	Language string   `json:"language,omitempty" yaml:"language"` // optional explicit primary language
}

// Text joins title and body the way issues are fingerprinted and scored.
func (i IssueText) Text() string {
	if i.Title == "" {
		return i.Body
	}
	if i.Body == "" {
		return i.Title
	}
	return i.Title + "\n\n" + i.Body
}

// Subject is the unit the pipeline analyzes: either a code artifact or an issue.
type Subject struct {
	Kind     Kind
	ID       string
	Content  []byte
	Language string
	Labels   []string
}

// SubjectFromArtifact builds a code subject.
func SubjectFromArtifact(a CodeArtifact) Subject {
	return Subject{
		Kind:     KindCode,
		ID:       a.ID,
		Content:  []byte(a.Content),
		Language: strings.ToLower(strings.TrimSpace(a.Language)),
	}
}

// SubjectFromIssue builds an issue subject.
func SubjectFromIssue(i IssueText) Subject {
	return Subject{
		Kind:     KindIssue,
		ID:       i.ID,
		Content:  []byte(i.Text()),
		Language: strings.ToLower(strings.TrimSpace(i.Language)),
		Labels:   i.Labels,
	}
}
