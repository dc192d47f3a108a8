// Package source reads raw play-by-play events from files.
package source

import (
	"context"
	"fmt"

	"github.com/okian/xg/internal/domain/model"
)

// Input formats.
const (
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
)

// Load reads every event in path using the named format.
func Load(ctx context.Context, format, path string) ([]model.Event, error) {
	switch format {
	case FormatJSONL:
		return JSONLines(ctx, path)
	case FormatParquet:
		return Parquet(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
