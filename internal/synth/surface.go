package synth

import "math"

// Surface is the logistic goal model the generator samples outcomes from.
// Recovering it is what the training pipeline is for.
type Surface struct {
	Intercept   float64
	Distance    float64 // per foot
	Angle       float64 // per degree
	Rebound     float64
	PowerPlay   float64
	PenaltyShot float64
}

// DefaultSurface gives roughly a 6% league shooting percentage.
func DefaultSurface() Surface {
	return Surface{
		Intercept:   -0.6,
		Distance:    -0.075,
		Angle:       -0.012,
		Rebound:     1.1,
		PowerPlay:   0.45,
		PenaltyShot: 0.8,
	}
}

// Probability is the chance that an attempt with these features scores.
func (s Surface) Probability(distance, angle float64, rebound, powerPlay, penaltyShot bool) float64 {
	z := s.Intercept + s.Distance*distance + s.Angle*math.Abs(angle)
	if rebound {
		z += s.Rebound
	}
	if powerPlay {
		z += s.PowerPlay
	}
	if penaltyShot {
		z += s.PenaltyShot
	}
	return 1 / (1 + math.Exp(-z))
}
