package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrNotFound = errors.New("model not found")
	ErrStore    = errors.New("model store failed")
)
