package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// BeginnerHandler lists beginner friendly issues.
type BeginnerHandler struct {
	deps Dependencies
}

// NewBeginnerHandler creates a new beginner handler.
func NewBeginnerHandler(deps Dependencies) *BeginnerHandler {
	return &BeginnerHandler{deps: deps}
}

// HandleBeginner handles GET /issues/beginner?limit=N requests.
func (h *BeginnerHandler) HandleBeginner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeServiceError(w, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		limit = n
	}
	list, err := h.deps.BeginnerIssues(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
