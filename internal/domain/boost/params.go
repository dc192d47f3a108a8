package boost

import (
	"fmt"

	"github.com/okian/xg/internal/domain/model"
)

// Params configures a boosted trees fit.
type Params struct {
	model.Hyperparameters
	LearningRate float64 `json:"learning_rate"`
	// Lambda is the L2 penalty on leaf weights.
	Lambda float64 `json:"lambda"`
	Seed   uint64  `json:"seed"`
}

// DefaultParams are used where no tuned configuration exists yet.
func DefaultParams() Params {
	return Params{
		Hyperparameters: model.Hyperparameters{
			Rounds:    100,
			MaxDepth:  3,
			ColSample: 1,
			MinLeaf:   20,
			Subsample: 1,
		},
		LearningRate: 0.1,
		Lambda:       1,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.Rounds < 1:
		return fmt.Errorf("%w: rounds %d", ErrInvalidParams, p.Rounds)
	case p.MaxDepth < 1:
		return fmt.Errorf("%w: max depth %d", ErrInvalidParams, p.MaxDepth)
	case p.ColSample <= 0 || p.ColSample > 1:
		return fmt.Errorf("%w: colsample %v", ErrInvalidParams, p.ColSample)
	case p.MinLeaf < 1:
		return fmt.Errorf("%w: min leaf %d", ErrInvalidParams, p.MinLeaf)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("%w: subsample %v", ErrInvalidParams, p.Subsample)
	case p.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate %v", ErrInvalidParams, p.LearningRate)
	case p.Lambda < 0:
		return fmt.Errorf("%w: lambda %v", ErrInvalidParams, p.Lambda)
	}
	return nil
}

// WithHyper returns DefaultParams with the tunable part replaced by h.
func WithHyper(h model.Hyperparameters, learningRate float64, seed uint64) Params {
	p := DefaultParams()
	p.Hyperparameters = h
	if learningRate > 0 {
		p.LearningRate = learningRate
	}
	p.Seed = seed
	return p
}
