package dataset

import (
	"fmt"

	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/internal/domain/sequence"
)

// Policy fixes the modeled outcome set and the rebound window together,
// since the two were always chosen as a pair.
type Policy struct {
	Name     string
	Outcomes []model.EventType
	Rebound  sequence.Window
}

// Presets.
var (
	// PolicyAttempts models every unblocked attempt with a four second
	// rebound window.
	PolicyAttempts = Policy{
		Name:     "attempts",
		Outcomes: []model.EventType{model.ShotOnGoal, model.MissedShot, model.Goal},
		Rebound:  sequence.Window{Max: 4},
	}
	// PolicyOnGoal models shots on goal and goals with a three second
	// rebound window.
	PolicyOnGoal = Policy{
		Name:     "on_goal",
		Outcomes: []model.EventType{model.ShotOnGoal, model.Goal},
		Rebound:  sequence.Window{Max: 3},
	}
)

// PolicyByName returns the preset called name.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case PolicyAttempts.Name:
		return PolicyAttempts, nil
	case PolicyOnGoal.Name:
		return PolicyOnGoal, nil
	default:
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Includes reports whether t is a modeled outcome.
func (p Policy) Includes(t model.EventType) bool {
	for _, o := range p.Outcomes {
		if o == t {
			return true
		}
	}
	return false
}
