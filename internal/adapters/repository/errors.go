package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("run not found")
	ErrOpen     = errors.New("open store failed")
	ErrWrite    = errors.New("store write failed")
	ErrRead     = errors.New("store read failed")
)
