package api

import (
	"net/http"

	service "github.com/okian/gitstart/internal/app"
)

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	deps Dependencies
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(deps Dependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// HandleRecommend handles POST /recommend requests.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.RecommendRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	rec, err := h.deps.Recommend(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
