package cv

import "errors"

// Sentinel errors.
var (
	ErrSingleClass = errors.New("auc needs both classes")
	ErrShape       = errors.New("scores and labels differ in length")
	ErrNonFinite   = errors.New("non-finite score")
	ErrFolds       = errors.New("invalid fold count")
	ErrFraction    = errors.New("invalid test fraction")
)
