// Package boost fits gradient boosted decision trees for binary
// classification under logistic loss.
//
// Trees grow depth-wise using second-order gain over quantized features,
// with row subsampling per round and column subsampling per tree.
package boost

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// minHessian keeps leaf weights finite when predictions saturate.
const minHessian = 1e-12

// Model is a fitted ensemble. It is immutable and safe for concurrent use.
type Model struct {
	Base  float64 `json:"base"`
	Trees []Tree  `json:"trees"`
	// Importance is the total split gain per input column.
	Importance []float64 `json:"importance"`
	Width      int       `json:"width"`
}

// Fit trains a model on x with labels y (true = positive class).
func Fit(x *mat.Dense, y []bool, p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n, width := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrShape, n, len(y))
	}
	pos := 0
	for _, v := range y {
		if v {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return nil, ErrSingleClass
	}

	rate := float64(pos) / float64(n)
	m := &Model{
		Base:       math.Log(rate / (1 - rate)),
		Importance: make([]float64, width),
		Width:      width,
	}

	g := &grower{
		data:    quantize(x),
		params:  p,
		grad:    make([]float64, n),
		hess:    make([]float64, n),
		rng:     rand.New(rand.NewSource(p.Seed)),
		gain:    m.Importance,
		feature: make([]int, width),
	}
	for f := range g.feature {
		g.feature[f] = f
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = m.Base
	}
	target := make([]float64, n)
	for i, v := range y {
		if v {
			target[i] = 1
		}
	}

	for r := 0; r < p.Rounds; r++ {
		for i := range score {
			pr := sigmoid(score[i])
			g.grad[i] = pr - target[i]
			g.hess[i] = math.Max(pr*(1-pr), minHessian)
		}
		t := g.grow(g.sampleRows(n), g.sampleColumns())
		for i := range score {
			score[i] += t.Predict(x.RawRowView(i))
			if math.IsNaN(score[i]) || math.IsInf(score[i], 0) {
				return nil, fmt.Errorf("%w: round %d", ErrNumerical, r)
			}
		}
		m.Trees = append(m.Trees, t)
	}
	return m, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Margin is the raw log-odds for x.
func (m *Model) Margin(x []float64) float64 {
	s := m.Base
	for i := range m.Trees {
		s += m.Trees[i].Predict(x)
	}
	return s
}

// PredictProba is the positive-class probability for x.
func (m *Model) PredictProba(x []float64) float64 {
	return sigmoid(m.Margin(x))
}

// PredictMatrix scores every row of x.
func (m *Model) PredictMatrix(x *mat.Dense) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = m.PredictProba(x.RawRowView(i))
	}
	return out
}
