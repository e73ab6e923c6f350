package model

import "time"

// RecommendationItem is one ranked issue.
type RecommendationItem struct {
	Rank          int     `json:"rank"`
	IssueID       string  `json:"issue_id"`
	Language      string  `json:"language,omitempty"`
	Difficulty    float64 `json:"difficulty"`
	Fitness       float64 `json:"fitness"`
	Confidence    float64 `json:"confidence"`
	LowConfidence bool    `json:"low_confidence"`
}

// Recommendation is the ordered answer for one contributor request. It is
// ephemeral and never persisted.
type Recommendation struct {
	RequestID   string               `json:"request_id"`
	ProfileID   string               `json:"profile_id"`
	Items       []RecommendationItem `json:"items"`
	Partial     bool                 `json:"partial"`
	Unscored    []string             `json:"unscored,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}
