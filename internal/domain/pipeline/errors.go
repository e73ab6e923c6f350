package pipeline

import "errors"

// Sentinel kinds for pipeline construction errors.
var (
	ErrNoCache   = errors.New("pipeline requires a score cache")
	ErrNoScorers = errors.New("pipeline requires at least one scorer")
)
