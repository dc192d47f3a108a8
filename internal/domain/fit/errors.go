package fit

import "errors"

// Sentinel errors.
var (
	ErrFoldRange = errors.New("fold out of range")
)
