package scorecache

import "errors"

// Sentinel kinds for score cache errors.
var (
	ErrNilStore   = errors.New("score cache store is nil")
	ErrInvalidTTL = errors.New("invalid score cache ttl")
	ErrComputeFn  = errors.New("compute function panicked")
)
