package rink

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Net center of the attacking goal in the fixed frame.
const (
	NetX = 89.0
	NetY = 0.0
)

// Geometry returns the distance in feet and the angle in degrees off the
// net's face of a shot taken from fixed (x, y), both rounded to one decimal.
// The angle is 0 straight on, 90 along the goal line and above 90 from
// behind the net, so it always lies in [0, 180].
func Geometry(x, y float64) (distance, angle float64) {
	dx := NetX - x
	dy := y - NetY
	distance = scalar.Round(math.Hypot(dx, dy), 1)
	if distance == 0 {
		return 0, 0
	}
	if dx == 0 {
		return distance, 90
	}

	angle = math.Abs(math.Atan(dy/dx)) * 180 / math.Pi
	if x > NetX {
		angle = 180 - angle
	}
	return distance, scalar.Round(angle, 1)
}
