package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/xg/internal/domain/model"
)

const maxLineBytes = 1 << 20

// JSONLines reads one JSON event per line from path. Blank lines are skipped.
func JSONLines(ctx context.Context, path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer f.Close()
	return ReadJSONLines(ctx, f)
}

// ReadJSONLines decodes events from r.
func ReadJSONLines(ctx context.Context, r io.Reader) ([]model.Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []model.Event
	line := 0
	for sc.Scan() {
		line++
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e model.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrDecode, line, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}

// WriteJSONLines writes events to w, one per line.
func WriteJSONLines(w io.Writer, events []model.Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
