// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/gitstart/internal/app"
	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/pipeline"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (pipeline.Analysis, error)
	Recommend(ctx context.Context, req service.RecommendRequest) (model.Recommendation, error)
	Warm(ctx context.Context, req service.WarmRequest) (service.WarmResult, error)
	BeginnerIssues(ctx context.Context, limit int) (service.BeginnerList, error)
	Invalidate(ctx context.Context, fingerprint string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	analyzeHandler   *AnalyzeHandler
	recommendHandler *RecommendHandler
	warmHandler      *WarmHandler
	beginnerHandler  *BeginnerHandler
	cacheHandler     *CacheHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		analyzeHandler:   NewAnalyzeHandler(deps),
		recommendHandler: NewRecommendHandler(deps),
		warmHandler:      NewWarmHandler(deps),
		beginnerHandler:  NewBeginnerHandler(deps),
		cacheHandler:     NewCacheHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/recommend", MetricsMiddleware(s.recommendHandler.HandleRecommend, "recommend"))
	mux.HandleFunc("/issues/warm", MetricsMiddleware(s.warmHandler.HandleWarm, "warm"))
	mux.HandleFunc("/issues/beginner", MetricsMiddleware(s.beginnerHandler.HandleBeginner, "beginner"))
	mux.HandleFunc("/cache/", MetricsMiddleware(s.cacheHandler.HandleInvalidate, "cache"))
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: w.Header().Get(requestIDHeader)})
}

// writeServiceError maps err to its status and writes it.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decode reads a single JSON object from the body. Unknown fields and
// trailing data are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", ErrBadRequest)
	}
	return nil
}
