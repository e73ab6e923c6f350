package model

import "time"

// WarmJob asks for an issue to be scored ahead of any recommendation request.
type WarmJob struct {
	JobID         string
	Issue         IssueText
	ScorerVersion string
	EnqueuedAt    time.Time
}

// DedupeKey identifies the work a job represents. Two jobs for the same
// issue and scorer version are the same work.
func (j WarmJob) DedupeKey() string {
	return j.ScorerVersion + "/" + j.Issue.ID
}
