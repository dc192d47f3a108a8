package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/xg/internal/adapters/repository"
	"github.com/okian/xg/internal/domain/evaluate"
	"github.com/okian/xg/internal/domain/model"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// RunsHandler serves the run ledger.
type RunsHandler struct {
	ledger Ledger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(ledger Ledger) *RunsHandler {
	return &RunsHandler{ledger: ledger}
}

type runView struct {
	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	Rows           int       `json:"rows"`
	Recipe         string    `json:"recipe"`
	TrainAUC       float64   `json:"train_auc"`
	TestAUC        float64   `json:"test_auc"`
	CalibrationPct float64   `json:"calibration_pct"`
}

type runDetail struct {
	Run    runView         `json:"run"`
	Report evaluate.Report `json:"report"`
}

type candidateView struct {
	Stage           model.Stage           `json:"stage"`
	Name            string                `json:"name"`
	Recipe          string                `json:"recipe"`
	Hyper           model.Hyperparameters `json:"hyper"`
	Mean            float64               `json:"mean_auc"`
	StdErr          float64               `json:"std_err"`
	Folds           int                   `json:"folds"`
	Failures        int                   `json:"failures"`
	EliminatedAfter int                   `json:"eliminated_after,omitempty"`
	Rank            int                   `json:"rank"`
}

func newRunView(s repository.RunSummary) runView {
	return runView{
		RunID:          s.RunID,
		CreatedAt:      s.CreatedAt,
		Rows:           s.Rows,
		Recipe:         s.Recipe,
		TrainAUC:       s.TrainAUC,
		TestAUC:        s.TestAUC,
		CalibrationPct: s.CalibrationPct,
	}
}

// HandleList handles GET /runs?limit=N, newest first.
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be in [1,%d]", ErrBadRequest, maxRunsLimit))
			return
		}
		limit = n
	}
	runs, err := h.ledger.Runs(r.Context(), limit)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	out := make([]runView, len(runs))
	for i := range runs {
		out[i] = newRunView(runs[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRun handles GET /runs/{id} and GET /runs/{id}/candidates.
func (h *RunsHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, sub, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/runs/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	switch sub {
	case "":
		h.detail(w, r, id)
	case "candidates":
		h.candidates(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *RunsHandler) detail(w http.ResponseWriter, r *http.Request, id string) {
	sum, err := h.ledger.Run(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	rep, err := h.ledger.Report(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runDetail{Run: newRunView(sum), Report: rep})
}

func (h *RunsHandler) candidates(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.ledger.Run(r.Context(), id); err != nil {
		writeLookupError(w, err)
		return
	}
	cands, err := h.ledger.Candidates(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	out := make([]candidateView, len(cands))
	for i, c := range cands {
		out[i] = candidateView{
			Stage:           c.Stage,
			Name:            c.Name,
			Recipe:          c.Recipe,
			Hyper:           c.Hyper,
			Mean:            c.Mean,
			StdErr:          c.StdErr,
			Folds:           c.Folds,
			Failures:        c.Failures,
			EliminatedAfter: c.EliminatedAfter,
			Rank:            c.Rank,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
