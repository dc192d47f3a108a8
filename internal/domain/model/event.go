// Package model contains domain models passed between pipeline stages.
package model

import "strconv"

// EventType is the play-by-play event category.
type EventType string

// Event types carried by the upstream feed.
const (
	ShotOnGoal       EventType = "shot-on-goal"
	MissedShot       EventType = "missed-shot"
	Goal             EventType = "goal"
	BlockedShot      EventType = "blocked-shot"
	Hit              EventType = "hit"
	Faceoff          EventType = "faceoff"
	Giveaway         EventType = "giveaway"
	Takeaway         EventType = "takeaway"
	Penalty          EventType = "penalty"
	DelayedPenalty   EventType = "delayed-penalty"
	Stoppage         EventType = "stoppage"
	PeriodStart      EventType = "period-start"
	PeriodEnd        EventType = "period-end"
	GameEnd          EventType = "game-end"
	ShootoutComplete EventType = "shootout-complete"
	UnknownEvent     EventType = "unknown"
)

// ShootoutPeriod is the period number reserved for the shootout.
const ShootoutPeriod = 5

// Unknown is the sentinel used for every missing categorical value.
const Unknown = "unknown"

// IsShotAttempt reports whether t is a shot on goal, missed shot or goal.
// Blocked shots are not attempts.
func (t EventType) IsShotAttempt() bool {
	return t == ShotOnGoal || t == MissedShot || t == Goal
}

// Event is one raw play-by-play entry. Optional numeric fields use pointers
// (coordinates) or zero (player ids) for absence.
type Event struct {
	GameID        int64     `json:"game_id"`
	Season        string    `json:"season"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Period        int       `json:"period"`
	PeriodSeconds int       `json:"period_seconds"`
	GameSeconds   int       `json:"game_seconds"`
	SortOrder     int       `json:"sort_order"`
	EventIdx      int       `json:"event_idx"`
	Type          EventType `json:"type"`
	X             *float64  `json:"x,omitempty"`
	Y             *float64  `json:"y,omitempty"`
	Zone          string    `json:"zone,omitempty"` // O, D, N
	TeamID        int       `json:"team_id,omitempty"`
	HomeTeamID    int       `json:"home_team_id"`
	AwayTeamID    int       `json:"away_team_id"`
	SituationCode string    `json:"situation_code,omitempty"`
	ShotType      string    `json:"shot_type,omitempty"`
	PenaltyDesc   string    `json:"penalty_desc,omitempty"`
	ShooterID     int       `json:"shooter_id,omitempty"`
	ScorerID      int       `json:"scorer_id,omitempty"`
	GoalieID      int       `json:"goalie_id,omitempty"`
	Assist1ID     int       `json:"assist1_id,omitempty"`
	Assist2ID     int       `json:"assist2_id,omitempty"`
}

// IsHome reports whether the event-owning team is the home team.
func (e *Event) IsHome() bool {
	return e.TeamID != 0 && e.TeamID == e.HomeTeamID
}

// Key identifies an event within the corpus.
func (e *Event) Key() string {
	return strconv.FormatInt(e.GameID, 10) + ":" + strconv.Itoa(e.EventIdx)
}

// Float returns a pointer to v, for building optional coordinates.
func Float(v float64) *float64 { return &v }
