package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrTooManyCandidates = errors.New("too many candidate issues")
	ErrNoPipeline        = errors.New("service requires a pipeline")
)
