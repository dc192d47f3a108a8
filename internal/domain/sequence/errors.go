package sequence

import "errors"

// Sentinel errors.
var (
	ErrUnordered = errors.New("events are not in chronological order")
)
