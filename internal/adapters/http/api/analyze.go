package api

import (
	"net/http"

	service "github.com/okian/gitstart/internal/app"
)

// AnalyzeHandler handles analyze requests.
type AnalyzeHandler struct {
	deps Dependencies
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps}
}

// HandleAnalyze handles POST /analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.AnalyzeRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.Analyze(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
