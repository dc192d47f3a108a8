// Package tune searches boosted trees hyperparameters for a recipe with a
// Latin hypercube design and racing cross-validation, and packages the
// refit winner as a model artifact.
package tune

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/okian/xg/internal/domain/model"
)

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FloatRange is a closed float range.
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Space bounds every tunable hyperparameter.
type Space struct {
	Rounds    IntRange   `json:"rounds"`
	MaxDepth  IntRange   `json:"max_depth"`
	ColSample FloatRange `json:"colsample"`
	MinLeaf   IntRange   `json:"min_leaf"`
	Subsample FloatRange `json:"subsample"`
}

// DefaultSpace is the search space used when none is configured.
func DefaultSpace() Space {
	return Space{
		Rounds:    IntRange{Min: 50, Max: 400},
		MaxDepth:  IntRange{Min: 2, Max: 8},
		ColSample: FloatRange{Min: 0.3, Max: 1},
		MinLeaf:   IntRange{Min: 5, Max: 80},
		Subsample: FloatRange{Min: 0.5, Max: 1},
	}
}

// Validate checks every range is well formed.
func (s Space) Validate() error {
	switch {
	case s.Rounds.Min < 1 || s.Rounds.Max < s.Rounds.Min:
		return fmt.Errorf("%w: rounds %v", ErrInvalidSpace, s.Rounds)
	case s.MaxDepth.Min < 1 || s.MaxDepth.Max < s.MaxDepth.Min:
		return fmt.Errorf("%w: max depth %v", ErrInvalidSpace, s.MaxDepth)
	case s.MinLeaf.Min < 1 || s.MinLeaf.Max < s.MinLeaf.Min:
		return fmt.Errorf("%w: min leaf %v", ErrInvalidSpace, s.MinLeaf)
	case s.ColSample.Min <= 0 || s.ColSample.Max > 1 || s.ColSample.Max < s.ColSample.Min:
		return fmt.Errorf("%w: colsample %v", ErrInvalidSpace, s.ColSample)
	case s.Subsample.Min <= 0 || s.Subsample.Max > 1 || s.Subsample.Max < s.Subsample.Min:
		return fmt.Errorf("%w: subsample %v", ErrInvalidSpace, s.Subsample)
	}
	return nil
}

const dims = 5

func (r IntRange) at(u float64) int {
	v := r.Min + int(math.Floor(u*float64(r.Max-r.Min+1)))
	if v > r.Max {
		v = r.Max
	}
	return v
}

func (r FloatRange) at(u float64) float64 {
	return r.Min + u*(r.Max-r.Min)
}

// Sample draws n configurations from s with a Latin hypercube design, so
// each dimension's range is split into n strata holding one draw each.
func Sample(s Space, n int, seed uint64) ([]model.Hyperparameters, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidSpace, n)
	}
	src := rand.NewSource(seed)
	u := mat.NewDense(n, dims, nil)
	samplemv.LatinHypercube{Q: distmv.NewUnitUniform(dims, src), Src: src}.Sample(u)

	out := make([]model.Hyperparameters, n)
	for i := range out {
		row := u.RawRowView(i)
		out[i] = model.Hyperparameters{
			Rounds:    s.Rounds.at(row[0]),
			MaxDepth:  s.MaxDepth.at(row[1]),
			ColSample: s.ColSample.at(row[2]),
			MinLeaf:   s.MinLeaf.at(row[3]),
			Subsample: s.Subsample.at(row[4]),
		}
	}
	return out, nil
}
