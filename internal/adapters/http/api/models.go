package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/okian/xg/internal/adapters/registry"
	"github.com/okian/xg/internal/domain/boost"
	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/tune"
)

const modelListLimit = 50

// runLister is implemented by registries that index every published model.
type runLister interface {
	Runs(ctx context.Context, n int) ([]string, error)
}

// ModelsHandler serves published model metadata.
type ModelsHandler struct {
	models registry.Registry
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(models registry.Registry) *ModelsHandler {
	return &ModelsHandler{models: models}
}

type modelView struct {
	RunID      string                   `json:"run_id"`
	Recipe     string                   `json:"recipe"`
	CreatedAt  time.Time                `json:"created_at"`
	Params     boost.Params             `json:"params"`
	CV         cv.Summary               `json:"cv"`
	Columns    []string                 `json:"columns"`
	Importance []tune.FeatureImportance `json:"importance"`
}

// HandleGet handles GET /models/, GET /models/latest and GET /models/{run_id}.
func (h *ModelsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if h.models == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrNoModel)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/models/")
	if id == "" {
		h.list(w, r)
		return
	}
	if strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var (
		a   *tune.Artifact
		err error
	)
	if id == "latest" {
		a, err = h.models.Latest(r.Context())
	} else {
		a, err = h.models.Get(r.Context(), id)
	}
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelView{
		RunID:      a.RunID,
		Recipe:     a.Recipe,
		CreatedAt:  a.CreatedAt,
		Params:     a.Params,
		CV:         a.CV,
		Columns:    a.Encoder.Columns,
		Importance: a.Importance(),
	})
}

// list returns the newest published run ids when the registry keeps an index.
func (h *ModelsHandler) list(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.models.(runLister)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ids, err := lister.Runs(r.Context(), modelListLimit)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}
