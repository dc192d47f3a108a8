// Package api serves the run ledger and the published models over HTTP.
// Every route is read-only.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/xg/internal/adapters/registry"
	"github.com/okian/xg/internal/adapters/repository"
	"github.com/okian/xg/internal/domain/evaluate"
)

// Ledger reads past training runs.
type Ledger interface {
	Runs(ctx context.Context, n int) ([]repository.RunSummary, error)
	Run(ctx context.Context, runID string) (repository.RunSummary, error)
	Report(ctx context.Context, runID string) (evaluate.Report, error)
	Candidates(ctx context.Context, runID string) ([]repository.CandidateRecord, error)
}

// Server wires HTTP routes for the ledger API.
type Server struct {
	healthHandler *HealthHandler
	runsHandler   *RunsHandler
	modelsHandler *ModelsHandler
}

// NewServer creates a new API server with all handlers. models may be nil
// when no registry is configured.
func NewServer(ledger Ledger, models registry.Registry) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		runsHandler:   NewRunsHandler(ledger),
		modelsHandler: NewModelsHandler(models),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleList, "runs"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandleRun, "run"))
	mux.HandleFunc("/models/", MetricsMiddleware(s.modelsHandler.HandleGet, "models"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeLookupError maps store and registry not-found errors to 404.
func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
