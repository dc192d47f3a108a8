package tune

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/okian/xg/internal/domain/boost"
	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/encode"
	"github.com/okian/xg/internal/domain/fit"
	"github.com/okian/xg/internal/domain/model"
)

// Artifact is the trained classifier: a frozen encoder plus the boosted
// model refit on the whole training partition. It is immutable.
type Artifact struct {
	RunID     string          `json:"run_id"`
	Recipe    string          `json:"recipe"`
	Encoder   *encode.Encoder `json:"encoder"`
	Model     *boost.Model    `json:"model"`
	Params    boost.Params    `json:"params"`
	CV        cv.Summary      `json:"cv"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewArtifact refits recipe with params on rows.
func NewArtifact(runID string, recipe encode.Recipe, rows []model.TrainingRow, params boost.Params, summary cv.Summary, now time.Time) (*Artifact, error) {
	enc, m, err := fit.Refit(recipe, rows, params)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		RunID:     runID,
		Recipe:    recipe.Name,
		Encoder:   enc,
		Model:     m,
		Params:    params,
		CV:        summary,
		CreatedAt: now.UTC(),
	}, nil
}

// PredictProbability is the goal probability of a shot, in [0, 1].
func (a *Artifact) PredictProbability(f model.Features) float64 {
	return a.Model.PredictProba(a.Encoder.Vector(f))
}

// PredictRows scores rows in order.
func (a *Artifact) PredictRows(rows []model.TrainingRow) []float64 {
	out := make([]float64, len(rows))
	buf := make([]float64, a.Encoder.Width())
	for i := range rows {
		a.Encoder.Encode(&rows[i].Features, buf)
		out[i] = a.Model.PredictProba(buf)
	}
	return out
}

// FeatureImportance is one encoded column's share of total split gain.
type FeatureImportance struct {
	Column string  `json:"column"`
	Gain   float64 `json:"gain"`
	Share  float64 `json:"share"`
}

// Importance lists encoded columns by descending split gain.
func (a *Artifact) Importance() []FeatureImportance {
	var total float64
	for _, g := range a.Model.Importance {
		total += g
	}
	out := make([]FeatureImportance, len(a.Encoder.Columns))
	for i, c := range a.Encoder.Columns {
		out[i] = FeatureImportance{Column: c}
		if i < len(a.Model.Importance) {
			out[i].Gain = a.Model.Importance[i]
		}
		if total > 0 {
			out[i].Share = out[i].Gain / total
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Gain > out[j].Gain })
	return out
}

// Marshal encodes the artifact as JSON.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// Unmarshal decodes an artifact produced by Marshal and checks that the
// encoder and model agree.
func Unmarshal(raw []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	if a.Encoder == nil || a.Model == nil {
		return nil, fmt.Errorf("%w: missing encoder or model", ErrArtifact)
	}
	if err := a.Encoder.Restore(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	if a.Encoder.Width() != a.Model.Width {
		return nil, fmt.Errorf("%w: encoder width %d, model width %d", ErrArtifact, a.Encoder.Width(), a.Model.Width)
	}
	return &a, nil
}
