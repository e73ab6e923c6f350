package model

// ContributorProfile is the read-only skill vector owned by the account service.
type ContributorProfile struct {
	ID string `json:"id" yaml:"id"`
	// Proficiency maps a language to an estimate in [0,1].
	Proficiency map[string]float64 `json:"proficiency" yaml:"proficiency"`
	// CompletedDifficulties holds normalized difficulties of finished issues.
	CompletedDifficulties []float64 `json:"completed_difficulties" yaml:"completed_difficulties"`
}
