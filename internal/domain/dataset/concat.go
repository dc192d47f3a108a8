package dataset

import (
	"sort"

	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/internal/domain/sequence"
)

// SeasonTable is one season's raw events, in any order.
type SeasonTable struct {
	Season string
	Events []model.Event
}

// Concat merges seasons into one stream sorted by game id, date, game time
// and intra-period order. The inputs are not modified.
func Concat(seasons []SeasonTable) []model.Event {
	n := 0
	for _, s := range seasons {
		n += len(s.Events)
	}
	out := make([]model.Event, 0, n)
	for _, s := range seasons {
		out = append(out, s.Events...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sequence.Less(&out[i], &out[j])
	})
	return out
}

// Validate checks every shot attempt carries the fields its type requires.
// The first violation is returned as a *SchemaError.
func Validate(events []model.Event) error {
	for i := range events {
		e := &events[i]
		if !e.Type.IsShotAttempt() {
			continue
		}
		field := ""
		switch {
		case e.TeamID == 0:
			field = "team_id"
		case e.Type == model.Goal && e.ScorerID == 0:
			field = "scorer_id"
		case e.Type != model.Goal && e.ShooterID == 0:
			field = "shooter_id"
		}
		if field != "" {
			return &SchemaError{GameID: e.GameID, EventIdx: e.EventIdx, Type: string(e.Type), Field: field}
		}
	}
	return nil
}
