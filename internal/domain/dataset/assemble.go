package dataset

import (
	"github.com/okian/xg/internal/domain/model"
)

// Drop reasons reported by Assemble.
const (
	DropOutOfScope       = "out_of_scope_type"
	DropEmptyNet         = "empty_net"
	DropShootout         = "shootout"
	DropUndefinedGeom    = "undefined_geometry"
	DropNegativeDistance = "negative_distance"
	DropNegativeElapsed  = "negative_elapsed"
)

// Report summarizes an assembly pass.
type Report struct {
	Policy string
	// Candidates is the number of shot attempts considered.
	Candidates int
	Rows       int
	Goals      int
	Dropped    map[string]int
}

// Assemble filters enriched events to the policy's outcomes and builds the
// labelled training rows. Blocked shots and other events are skipped
// silently; shot attempts that do not make it are counted per reason.
func Assemble(enriched []model.EnrichedEvent, policy Policy) ([]model.TrainingRow, Report) {
	rep := Report{Policy: policy.Name, Dropped: make(map[string]int)}
	rows := make([]model.TrainingRow, 0)
	for i := range enriched {
		e := &enriched[i]
		if !e.Type.IsShotAttempt() {
			continue
		}
		rep.Candidates++

		reason := ""
		switch {
		case !policy.Includes(e.Type):
			reason = DropOutOfScope
		case e.EventOnEmptyNet:
			reason = DropEmptyNet
		case e.Period == model.ShootoutPeriod:
			reason = DropShootout
		case !e.HasGeometry():
			reason = DropUndefinedGeom
		case *e.Distance < 0:
			reason = DropNegativeDistance
		case e.Lag.Elapsed < 0:
			reason = DropNegativeElapsed
		}
		if reason != "" {
			rep.Dropped[reason]++
			continue
		}

		row := model.TrainingRow{
			Meta: model.RowMeta{
				ID:       model.RowID(len(rows)),
				GameID:   e.GameID,
				Season:   e.Season,
				EventIdx: e.EventIdx,
			},
			Features: model.Features{
				Distance:    *e.Distance,
				Angle:       *e.Angle,
				ShotType:    impute(e.ShotType),
				Period:      e.Period,
				PowerPlay:   e.PowerPlay,
				ShortHanded: e.ShortHanded,
				LagEvent1:   impute(e.Lag.Type1),
				LagEvent2:   impute(e.Lag.Type2),
				LagZone:     impute(e.Lag.Zone),
				Elapsed:     e.Lag.Elapsed,
				Lateral:     e.Lag.Lateral,
				Rebound:     e.Rebound,
				PenaltyShot: e.PenaltyShot,
			},
			Label:  model.OutcomeShotAttempt,
			Danger: e.Danger,
		}
		if e.Type == model.Goal {
			row.Label = model.OutcomeGoal
			rep.Goals++
		}
		rows = append(rows, row)
	}
	rep.Rows = len(rows)
	return rows, rep
}

func impute(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}
