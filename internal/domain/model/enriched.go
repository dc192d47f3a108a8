package model

// Lag holds the features derived from the preceding events of the stream.
type Lag struct {
	Type1   string  // previous event type
	Type2   string  // event type two back
	Zone    string  // previous event zone
	Elapsed float64 // seconds since the previous event; negative across period boundaries
	Lateral float64 // cross-ice displacement since the previous event
}

// EnrichedEvent is an Event plus every derived per-event field.
// FixedX, FixedY, Distance and Angle are nil off shot attempts or when the
// team's attacking direction is undefined for the period.
type EnrichedEvent struct {
	Event

	FixedX   *float64
	FixedY   *float64
	Distance *float64
	Angle    *float64

	AwayGoalie  bool
	AwaySkaters int
	HomeSkaters int
	HomeGoalie  bool
	// SituationKnown is false when the situation code was absent or invalid.
	SituationKnown bool

	PowerPlay         bool
	ShortHanded       bool
	EventOnEmptyNet   bool // the opposing goalie was off
	EventTeamNetEmpty bool // the event team's own goalie was off

	Lag         Lag
	Rebound     bool
	PenaltyShot bool
	Danger      bool
}

// HasGeometry reports whether distance and angle are defined.
func (e *EnrichedEvent) HasGeometry() bool {
	return e.Distance != nil && e.Angle != nil
}
