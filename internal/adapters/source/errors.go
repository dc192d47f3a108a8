package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrOpen          = errors.New("open source failed")
	ErrDecode        = errors.New("decode event failed")
	ErrUnknownFormat = errors.New("unknown input format")
	ErrWrite         = errors.New("write source failed")
)
