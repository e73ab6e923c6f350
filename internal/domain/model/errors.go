package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by the pipeline. Callers match them with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAdapterTimeout     = errors.New("adapter timeout")
	ErrAdapterUnavailable = errors.New("adapter unavailable")
	ErrAllScorersFailed   = errors.New("all scorers failed")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrNotFound           = errors.New("not found")
	ErrNoUsableScores     = errors.New("no usable scores")
)

// Error attaches an operation and a sentinel kind to an underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns an error of the given kind wrapping err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap annotates err with op, keeping its existing kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrAdapterTimeout) || errors.Is(err, ErrAdapterUnavailable)
}
