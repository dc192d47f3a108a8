package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrUnknownPolicy  = errors.New("unknown outcome policy")
)

// SchemaError names the raw event that broke the upstream contract.
type SchemaError struct {
	GameID   int64
	EventIdx int
	Type     string
	Field    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: game %d event %d (%s) has no %s",
		ErrSchemaMismatch, e.GameID, e.EventIdx, e.Type, e.Field)
}

// Unwrap lets errors.Is match ErrSchemaMismatch.
func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }
