package inference

import "errors"

// Typed inference failures.
var (
	ErrTimeout        = errors.New("inference timeout")
	ErrRateLimited    = errors.New("inference rate limited")
	ErrMalformedInput = errors.New("inference rejected input")
	ErrUnavailable    = errors.New("inference unavailable")
	ErrBadResponse    = errors.New("inference response invalid")
)
