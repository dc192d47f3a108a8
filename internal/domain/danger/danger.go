// Package danger flags dangerous shot attempts from shot location alone.
package danger

// ModelThreshold is the predicted goal probability at and above which a
// model flags a shot as dangerous.
const ModelThreshold = 0.064

// Step is one row of the danger cone: shots closer than MaxDistance and at
// a sharper angle than MaxAngle are dangerous.
type Step struct {
	MaxDistance float64
	MaxAngle    float64
}

// anyAngle admits every angle.
const anyAngle = 181

// Table is evaluated in order; the first match wins.
var Table = []Step{
	{MaxDistance: 30, MaxAngle: 55},
	{MaxDistance: 25, MaxAngle: 58},
	{MaxDistance: 20, MaxAngle: 62},
	{MaxDistance: 15, MaxAngle: 67},
	{MaxDistance: 10, MaxAngle: 73},
	{MaxDistance: 5, MaxAngle: 80},
	{MaxDistance: 3, MaxAngle: anyAngle},
}

// Dangerous reports whether a shot at distance and angle falls inside the
// cone.
func Dangerous(distance, angle float64) bool {
	for _, s := range Table {
		if distance < s.MaxDistance && angle < s.MaxAngle {
			return true
		}
	}
	return false
}

// ByModel reports whether a predicted probability crosses ModelThreshold.
func ByModel(p float64) bool {
	return p >= ModelThreshold
}
