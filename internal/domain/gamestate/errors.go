package gamestate

import "errors"

// Sentinel errors.
var (
	ErrInvalidCode = errors.New("invalid situation code")
)
