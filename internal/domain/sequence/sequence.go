// Package sequence derives features from the events preceding each event of
// a chronologically sorted stream.
//
// The stream is continuous: it is not reset at period or game boundaries.
// Consumers drop the resulting negative elapsed times downstream.
package sequence

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/xg/internal/domain/model"
)

// PenaltyShotCode prefixes the penalty description of a penalty shot award,
// in any case ("ps-hooking-on-breakaway", "PS-Slashing").
const PenaltyShotCode = "ps"

// MinReboundLateral is the cross-ice movement, in feet, a rebound requires.
const MinReboundLateral = 1.0

// Window bounds the elapsed time of a rebound.
type Window struct {
	Max       float64
	AllowZero bool
}

// Contains reports whether elapsed falls in the window.
func (w Window) Contains(elapsed float64) bool {
	if elapsed < 0 || elapsed >= w.Max {
		return false
	}
	return elapsed > 0 || w.AllowZero
}

// DefaultWindow is (0s, 4s).
var DefaultWindow = Window{Max: 4}

type builder struct {
	window Window
}

// IsPenaltyShot reports whether desc describes a penalty shot award.
func IsPenaltyShot(desc string) bool {
	n := len(PenaltyShotCode)
	return len(desc) >= n && strings.EqualFold(desc[:n], PenaltyShotCode)
}

// Less orders events by game, date, game time, period, period time and
// intra-period sequence. Period and period time settle events whose game
// time is missing or inconsistent.
func Less(a, b *model.Event) bool {
	if a.GameID != b.GameID {
		return a.GameID < b.GameID
	}
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.GameSeconds != b.GameSeconds {
		return a.GameSeconds < b.GameSeconds
	}
	if a.Period != b.Period {
		return a.Period < b.Period
	}
	if a.PeriodSeconds != b.PeriodSeconds {
		return a.PeriodSeconds < b.PeriodSeconds
	}
	return a.SortOrder < b.SortOrder
}

// CheckOrder returns ErrUnordered naming the first event that sorts before
// its predecessor.
func CheckOrder(events []model.EnrichedEvent) error {
	for i := 1; i < len(events); i++ {
		if Less(&events[i].Event, &events[i-1].Event) {
			return fmt.Errorf("%w: event %s precedes %s",
				ErrUnordered, events[i].Key(), events[i-1].Key())
		}
	}
	return nil
}

// Lateral is the cross-ice displacement between two y coordinates. The y
// sign is arbitrary across a swing through center, so opposite signs add
// magnitudes. A missing side yields 0.
func Lateral(prev, cur *float64) float64 {
	if prev == nil || cur == nil {
		return 0
	}
	p, c := *prev, *cur
	if (p >= 0) == (c >= 0) {
		return math.Abs(c - p)
	}
	return math.Abs(c) + math.Abs(p)
}

// Build returns a copy of events with Lag, Rebound and PenaltyShot set.
// Events must already be in chronological order.
func Build(events []model.EnrichedEvent, opts ...Option) ([]model.EnrichedEvent, error) {
	b := builder{window: DefaultWindow}
	for _, opt := range opts {
		opt(&b)
	}
	if err := CheckOrder(events); err != nil {
		return nil, err
	}

	out := make([]model.EnrichedEvent, len(events))
	copy(out, events)
	for i := range out {
		cur := &out[i]
		cur.Lag = model.Lag{Type1: model.Unknown, Type2: model.Unknown, Zone: model.Unknown}
		cur.Rebound = false
		cur.PenaltyShot = false
		if i == 0 {
			continue
		}

		prev := &events[i-1]
		cur.Lag.Type1 = string(prev.Type)
		if i > 1 {
			cur.Lag.Type2 = string(events[i-2].Type)
		}
		if prev.Zone != "" {
			cur.Lag.Zone = prev.Zone
		}
		cur.Lag.Elapsed = float64(cur.PeriodSeconds - prev.PeriodSeconds)
		cur.Lag.Lateral = Lateral(prev.Y, cur.Y)

		cur.Rebound = prev.Type == model.ShotOnGoal &&
			cur.Lag.Lateral >= MinReboundLateral &&
			b.window.Contains(cur.Lag.Elapsed)
		cur.PenaltyShot = IsPenaltyShot(prev.PenaltyDesc)
	}
	return out, nil
}
