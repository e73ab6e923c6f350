package api

import (
	"errors"
	"net/http"

	service "github.com/okian/gitstart/internal/app"
)

// WarmHandler handles cache warming requests.
type WarmHandler struct {
	deps Dependencies
}

// NewWarmHandler creates a new warm handler.
func NewWarmHandler(deps Dependencies) *WarmHandler {
	return &WarmHandler{deps: deps}
}

// HandleWarm handles POST /issues/warm requests. It answers 202 unless
// every issue was turned away by a full queue, which is 429.
func (h *WarmHandler) HandleWarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.WarmRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if len(req.IssueIDs) == 0 && len(req.Issues) == 0 {
		writeServiceError(w, errors.Join(ErrBadRequest, errors.New("no issues given")))
		return
	}
	res, err := h.deps.Warm(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(res.Rejected) > 0 && len(res.Queued)+len(res.Duplicates)+len(res.Invalid) == 0 {
		writeJSON(w, http.StatusTooManyRequests, res)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}
