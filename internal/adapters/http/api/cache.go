package api

import (
	"net/http"
	"strings"
)

// CacheHandler handles cache administration requests.
type CacheHandler struct {
	deps Dependencies
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps Dependencies) *CacheHandler {
	return &CacheHandler{deps: deps}
}

// HandleInvalidate handles DELETE /cache/{fingerprint} requests.
func (h *CacheHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	fp := strings.TrimPrefix(r.URL.Path, "/cache/")
	if fp == "" || strings.Contains(fp, "/") {
		writeError(w, http.StatusBadRequest, "invalid_input", ErrBadRequest)
		return
	}
	if err := h.deps.Invalidate(r.Context(), fp); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
