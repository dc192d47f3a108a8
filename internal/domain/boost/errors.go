package boost

import "errors"

// Sentinel errors.
var (
	ErrSingleClass   = errors.New("training labels contain a single class")
	ErrShape         = errors.New("matrix and label sizes differ")
	ErrInvalidParams = errors.New("invalid boosting parameters")
	ErrNumerical     = errors.New("non-finite prediction")
)
