// Package rink maps raw play-by-play coordinates into a shared attacking
// frame and derives shot geometry from it.
//
// The rink is 200x85 feet centered at the origin with the goal lines at
// x = ±89. After normalization every team attacks the net at (+89, 0).
package rink

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/xg/internal/domain/model"
)

// Point is a fixed rink coordinate.
type Point struct {
	X float64
	Y float64
}

// Slice identifies the events of one team in one period.
type Slice struct {
	Team   int
	Period int
}

// Directions returns, per (team, period), +1 when the team's offensive zone
// lies on positive x and -1 when it lies on negative x. Slices without any
// offensive-zone event with a coordinate are absent.
func Directions(events []model.Event) map[Slice]float64 {
	xs := make(map[Slice][]float64)
	for i := range events {
		e := &events[i]
		if e.TeamID == 0 || e.Zone != "O" || e.X == nil {
			continue
		}
		k := Slice{Team: e.TeamID, Period: e.Period}
		xs[k] = append(xs[k], *e.X)
	}

	out := make(map[Slice]float64, len(xs))
	for k, v := range xs {
		sort.Float64s(v)
		if stat.Quantile(0.5, stat.Empirical, v, nil) < 0 {
			out[k] = -1
		} else {
			out[k] = 1
		}
	}
	return out
}

// Normalize returns fixed coordinates for events, index aligned. An entry is
// nil when the event has no raw coordinates, no owning team, or when its
// (team, period) slice has no offensive-zone median. A slice whose median is
// negative is rotated by 180 degrees (both x and y negated); otherwise the
// raw coordinates pass through.
func Normalize(events []model.Event) []*Point {
	dirs := Directions(events)
	out := make([]*Point, len(events))
	for i := range events {
		e := &events[i]
		if e.X == nil || e.Y == nil || e.TeamID == 0 {
			continue
		}
		sign, ok := dirs[Slice{Team: e.TeamID, Period: e.Period}]
		if !ok {
			continue
		}
		out[i] = &Point{X: sign * *e.X, Y: sign * *e.Y}
	}
	return out
}
