// Package dedupe drops raw events repeated by overlapping upstream pulls.
package dedupe

import (
	"context"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/okian/xg/internal/domain/model"
)

// Defaults size the prefilter for a few seasons of play-by-play.
const (
	defaultExpected = 2_000_000
	defaultFPRate   = 0.001
)

// Deduper flags repeated keys within a batch.
type Deduper interface {
	// Duplicates reports, per key, whether an earlier key of the batch
	// is equal to it. First occurrences are never flagged.
	Duplicates(ctx context.Context, keys []string) ([]bool, error)
}

// InMemoryDeduper runs a bloom pass over the batch to find keys that may
// repeat, then settles only those keys against an exact set. Memory for
// exact keys scales with repeats plus filter false positives.
type InMemoryDeduper struct {
	expected uint
	fpRate   float64
	suspects atomic.Int64
}

var _ Deduper = (*InMemoryDeduper)(nil)

// NewInMemoryDeduper creates a deduper with options applied.
func NewInMemoryDeduper(opts ...Option) *InMemoryDeduper {
	d := &InMemoryDeduper{
		expected: defaultExpected,
		fpRate:   defaultFPRate,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Duplicates implements Deduper.
func (d *InMemoryDeduper) Duplicates(ctx context.Context, keys []string) ([]bool, error) {
	n := d.expected
	if uint(len(keys)) > n {
		n = uint(len(keys))
	}
	filter := bloom.NewWithEstimates(n, d.fpRate)

	// A key seen once tests negative on its only occurrence, so keys outside
	// suspect are unique.
	suspect := make(map[string]struct{})
	for _, k := range keys {
		if filter.TestAndAddString(k) {
			suspect[k] = struct{}{}
		}
	}
	d.suspects.Store(int64(len(suspect)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dup := make([]bool, len(keys))
	kept := make(map[string]struct{}, len(suspect))
	for i, k := range keys {
		if _, ok := suspect[k]; !ok {
			continue
		}
		if _, ok := kept[k]; ok {
			dup[i] = true
			continue
		}
		kept[k] = struct{}{}
	}
	return dup, nil
}

// Suspects is the number of distinct keys the filter flagged in the last
// batch, repeats and false positives together.
func (d *InMemoryDeduper) Suspects() int64 {
	return d.suspects.Load()
}

// Events returns events with repeated (game, event index) pairs removed,
// keeping first occurrences in order, and the number dropped.
func Events(ctx context.Context, d Deduper, events []model.Event) ([]model.Event, int, error) {
	keys := make([]string, len(events))
	for i := range events {
		keys[i] = events[i].Key()
	}
	dup, err := d.Duplicates(ctx, keys)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.Event, 0, len(events))
	dropped := 0
	for i := range events {
		if dup[i] {
			dropped++
			continue
		}
		out = append(out, events[i])
	}
	return out, dropped, nil
}
