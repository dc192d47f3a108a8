// Package gamestate decodes the four-digit situation code attached to each
// play-by-play event.
//
// The code is positional: away goalie (0/1), away skaters, home skaters,
// home goalie (0/1). "1551" is five on five with both goalies in.
package gamestate

import "fmt"

// State is the decoded on-ice manpower.
type State struct {
	AwayGoalie  bool
	AwaySkaters int
	HomeSkaters int
	HomeGoalie  bool
}

// Situation is a State seen from the event-owning team.
type Situation struct {
	PowerPlay   bool
	ShortHanded bool
	// OnEmptyNet is true when the opposing goalie is off.
	OnEmptyNet bool
	// OwnNetEmpty is true when the team's own goalie is off.
	OwnNetEmpty bool
}

// Decode parses a situation code.
func Decode(code string) (State, error) {
	if len(code) != 4 {
		return State{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	var d [4]int
	for i := 0; i < 4; i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return State{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
		d[i] = int(c - '0')
	}
	if d[0] > 1 || d[3] > 1 {
		return State{}, fmt.Errorf("%w: goalie digit in %q", ErrInvalidCode, code)
	}
	return State{
		AwayGoalie:  d[0] == 1,
		AwaySkaters: d[1],
		HomeSkaters: d[2],
		HomeGoalie:  d[3] == 1,
	}, nil
}

// powerPlay applies the advantage rule for one side. A side with its goalie
// pulled needs two more skaters than the opponent; the extra attacker alone
// is not a power play.
func powerPlay(goalie bool, own, opp int) bool {
	if goalie {
		return own > opp
	}
	return own-opp > 1
}

// HomePowerPlay reports whether the home side has a manpower advantage.
func (s State) HomePowerPlay() bool {
	return powerPlay(s.HomeGoalie, s.HomeSkaters, s.AwaySkaters)
}

// AwayPowerPlay reports whether the away side has a manpower advantage.
func (s State) AwayPowerPlay() bool {
	return powerPlay(s.AwayGoalie, s.AwaySkaters, s.HomeSkaters)
}

// ForTeam projects s onto the home or away team.
func ForTeam(s State, isHome bool) Situation {
	if isHome {
		return Situation{
			PowerPlay:   s.HomePowerPlay(),
			ShortHanded: s.AwayPowerPlay(),
			OnEmptyNet:  !s.AwayGoalie,
			OwnNetEmpty: !s.HomeGoalie,
		}
	}
	return Situation{
		PowerPlay:   s.AwayPowerPlay(),
		ShortHanded: s.HomePowerPlay(),
		OnEmptyNet:  !s.HomeGoalie,
		OwnNetEmpty: !s.AwayGoalie,
	}
}
