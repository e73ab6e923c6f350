package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/gitstart/internal/app"
	"github.com/okian/gitstart/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// statusFor maps a service error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, model.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrNoUsableScores):
		return http.StatusUnprocessableEntity, "no_usable_scores"
	case errors.Is(err, model.ErrAllScorersFailed):
		return http.StatusServiceUnavailable, "all_scorers_failed"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, model.ErrAdapterTimeout):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
