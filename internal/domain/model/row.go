package model

// Outcome is the binary training label.
type Outcome string

// Labels.
const (
	OutcomeGoal        Outcome = "goal"
	OutcomeShotAttempt Outcome = "shot-attempt"
)

// IsGoal reports whether the label is a goal.
func (o Outcome) IsGoal() bool { return o == OutcomeGoal }

// RowID is the opaque per-corpus row identifier assigned after all seasons
// are concatenated and sorted. It is carried for traceability only.
type RowID uint64

// RowMeta is the non-feature part of a training row.
type RowMeta struct {
	ID       RowID
	GameID   int64
	Season   string
	EventIdx int
}

// Features is the full predictor vector of a shot attempt.
type Features struct {
	Distance    float64 `json:"distance"`
	Angle       float64 `json:"angle"`
	ShotType    string  `json:"shot_type"`
	Period      int     `json:"period"`
	PowerPlay   bool    `json:"power_play"`
	ShortHanded bool    `json:"short_handed"`
	LagEvent1   string  `json:"lag_event_1"`
	LagEvent2   string  `json:"lag_event_2"`
	LagZone     string  `json:"lag_zone"`
	Elapsed     float64 `json:"elapsed"`
	Lateral     float64 `json:"lateral"`
	Rebound     bool    `json:"rebound"`
	PenaltyShot bool    `json:"penalty_shot"`
}

// TrainingRow is one labelled shot attempt.
type TrainingRow struct {
	Meta     RowMeta
	Features Features
	Label    Outcome
	// Danger is the rule-based flag, kept for diagnostics; not a predictor.
	Danger bool
}

// Labels extracts the binary labels of rows (1 = goal).
func Labels(rows []TrainingRow) []bool {
	out := make([]bool, len(rows))
	for i := range rows {
		out[i] = rows[i].Label.IsGoal()
	}
	return out
}

// Subset returns the rows at idx, in idx order.
func Subset(rows []TrainingRow, idx []int) []TrainingRow {
	out := make([]TrainingRow, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
