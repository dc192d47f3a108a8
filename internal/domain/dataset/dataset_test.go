package dataset

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/model"
)

const (
	home = 10
	away = 20
)

type builder struct {
	game   int64
	period int
	sec    int
	idx    int
	events []model.Event
}

func (b *builder) add(typ model.EventType, team int, zone string, x, y float64) *model.Event {
	b.idx++
	b.sec += 5
	e := model.Event{
		GameID: b.game, Season: "20232024", Date: "2023-10-10",
		Period: b.period, PeriodSeconds: b.sec, GameSeconds: (b.period-1)*1200 + b.sec,
		SortOrder: b.idx, EventIdx: b.idx, Type: typ,
		X: model.Float(x), Y: model.Float(y), Zone: zone,
		TeamID: team, HomeTeamID: home, AwayTeamID: away,
		SituationCode: "1551", ShotType: "wrist",
	}
	if typ.IsShotAttempt() {
		e.ShooterID = 8470000 + team
		e.GoalieID = 8480000
	}
	if typ == model.Goal {
		e.ScorerID = e.ShooterID
	}
	b.events = append(b.events, e)
	return &b.events[len(b.events)-1]
}

// sampleGame has home attacking +x and away attacking -x in period 1.
func sampleGame(id int64) []model.Event {
	b := &builder{game: id, period: 1}
	b.add(model.Faceoff, home, "N", 0, 0)
	b.add(model.ShotOnGoal, home, "O", 60, 10)
	b.add(model.Goal, home, "O", 79, -2)
	b.add(model.Faceoff, away, "N", 0, 0)
	b.add(model.MissedShot, away, "O", -70, 5)
	b.add(model.BlockedShot, home, "D", -60, 2)
	ev := b.add(model.ShotOnGoal, away, "O", -50, -15)
	ev.ShotType = ""
	return b.events
}

func TestConcat(t *testing.T) {
	Convey("Given two seasons out of order", t, func() {
		late := sampleGame(2024020001)
		early := sampleGame(2023020001)
		reversed := []model.Event{early[2], early[0], early[1]}
		seasons := []SeasonTable{
			{Season: "20242025", Events: late},
			{Season: "20232024", Events: reversed},
		}

		out := Concat(seasons)

		Convey("Then the stream is sorted by game then time", func() {
			So(len(out), ShouldEqual, len(late)+3)
			So(out[0].GameID, ShouldEqual, int64(2023020001))
			So(out[0].EventIdx, ShouldEqual, 1)
			So(out[1].EventIdx, ShouldEqual, 2)
			So(out[3].GameID, ShouldEqual, int64(2024020001))
		})

		Convey("Then the inputs keep their order", func() {
			So(reversed[0].EventIdx, ShouldEqual, 3)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given raw events", t, func() {
		events := sampleGame(1)
		So(Validate(events), ShouldBeNil)

		Convey("When a shot has no shooter", func() {
			events[1].ShooterID = 0
			err := Validate(events)
			So(errors.Is(err, ErrSchemaMismatch), ShouldBeTrue)
			var se *SchemaError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.EventIdx, ShouldEqual, 2)
			So(se.Field, ShouldEqual, "shooter_id")
		})

		Convey("When a goal has no scorer", func() {
			events[2].ScorerID = 0
			var se *SchemaError
			So(errors.As(Validate(events), &se), ShouldBeTrue)
			So(se.Field, ShouldEqual, "scorer_id")
		})

		Convey("When a non-shot has no team", func() {
			events[0].TeamID = 0
			So(Validate(events), ShouldBeNil)
		})
	})
}

func TestPolicy(t *testing.T) {
	Convey("Given the policy presets", t, func() {
		p, err := PolicyByName("attempts")
		So(err, ShouldBeNil)
		So(p.Includes(model.MissedShot), ShouldBeTrue)
		So(p.Rebound.Max, ShouldEqual, 4.0)

		p, err = PolicyByName("on_goal")
		So(err, ShouldBeNil)
		So(p.Includes(model.MissedShot), ShouldBeFalse)
		So(p.Includes(model.Goal), ShouldBeTrue)
		So(p.Rebound.Max, ShouldEqual, 3.0)

		_, err = PolicyByName("everything")
		So(errors.Is(err, ErrUnknownPolicy), ShouldBeTrue)
	})
}

func TestEnrichAndAssemble(t *testing.T) {
	Convey("Given one game", t, func() {
		events := sampleGame(1)
		enriched, stats, err := Enrich(events, PolicyAttempts)
		So(err, ShouldBeNil)
		So(stats.Games, ShouldEqual, 1)
		So(stats.UndefinedGeometry, ShouldEqual, 0)
		So(len(enriched), ShouldEqual, len(events))

		Convey("Then away shots are mapped onto the positive net", func() {
			miss := enriched[4]
			So(*miss.FixedX, ShouldEqual, 70.0)
			So(*miss.Distance, ShouldEqual, 19.6)
		})

		Convey("Then the goal is flagged dangerous", func() {
			So(*enriched[2].Distance, ShouldEqual, 10.2)
			So(enriched[2].Danger, ShouldBeTrue)
		})

		Convey("When assembling with every attempt", func() {
			rows, rep := Assemble(enriched, PolicyAttempts)

			Convey("Then blocked shots never become rows", func() {
				So(rep.Candidates, ShouldEqual, 4)
				So(rep.Rows, ShouldEqual, 4)
				So(rep.Goals, ShouldEqual, 1)
			})

			Convey("Then rows carry sequential ids and labels", func() {
				for i, r := range rows {
					So(r.Meta.ID, ShouldEqual, model.RowID(i))
				}
				So(rows[1].Label, ShouldEqual, model.OutcomeGoal)
				So(rows[0].Label, ShouldEqual, model.OutcomeShotAttempt)
				So(rows[1].Meta.EventIdx, ShouldEqual, 3)
			})

			Convey("Then missing shot types become unknown", func() {
				So(rows[3].Features.ShotType, ShouldEqual, "unknown")
				So(rows[3].Features.LagEvent1, ShouldEqual, "blocked-shot")
			})
		})

		Convey("When assembling shots on goal only", func() {
			rows, rep := Assemble(enriched, PolicyOnGoal)
			So(len(rows), ShouldEqual, 3)
			So(rep.Dropped[DropOutOfScope], ShouldEqual, 1)
		})
	})

	Convey("Given edge-case attempts", t, func() {
		events := sampleGame(1)
		events[1].SituationCode = "1560" // home goalie pulled on a home shot
		events[4].Period = model.ShootoutPeriod
		events[6].SituationCode = "1560" // away shot at the empty home net

		enriched, stats, err := Enrich(events, PolicyAttempts)
		So(err, ShouldBeNil)
		So(stats.InvalidSituation, ShouldEqual, 0)
		So(enriched[1].EventTeamNetEmpty, ShouldBeTrue)
		So(enriched[1].EventOnEmptyNet, ShouldBeFalse)
		So(enriched[6].EventOnEmptyNet, ShouldBeTrue)
		So(enriched[6].EventTeamNetEmpty, ShouldBeFalse)

		rows, rep := Assemble(enriched, PolicyAttempts)
		So(rep.Dropped[DropShootout], ShouldEqual, 1)
		So(rep.Dropped[DropEmptyNet], ShouldEqual, 1)
		So(len(rows), ShouldEqual, 2)
	})

	Convey("Given a team without offensive-zone events", t, func() {
		b := &builder{game: 7, period: 1}
		b.add(model.ShotOnGoal, home, "N", 10, 10)
		b.add(model.ShotOnGoal, away, "O", -60, 10)
		b.events[0].SituationCode = "bad"

		enriched, stats, err := Enrich(b.events, PolicyAttempts)
		So(err, ShouldBeNil)
		So(stats.UndefinedGeometry, ShouldEqual, 1)
		So(stats.InvalidSituation, ShouldEqual, 1)
		So(enriched[0].HasGeometry(), ShouldBeFalse)

		rows, rep := Assemble(enriched, PolicyAttempts)
		So(len(rows), ShouldEqual, 1)
		So(rep.Dropped[DropUndefinedGeom], ShouldEqual, 1)
	})

	Convey("Given a stream across a period break", t, func() {
		b := &builder{game: 3, period: 1, sec: 1180}
		b.add(model.ShotOnGoal, home, "O", 60, 10)
		b.period, b.sec = 2, 0
		b.add(model.ShotOnGoal, home, "O", -60, 10)
		b.add(model.ShotOnGoal, away, "O", 60, 10)

		enriched, _, err := Enrich(b.events, PolicyAttempts)
		So(err, ShouldBeNil)
		rows, rep := Assemble(enriched, PolicyAttempts)
		So(rep.Dropped[DropNegativeElapsed], ShouldEqual, 1)
		So(len(rows), ShouldEqual, 2)
	})

	Convey("Given an unsorted stream", t, func() {
		events := sampleGame(1)
		events[0], events[1] = events[1], events[0]
		_, _, err := Enrich(events, PolicyAttempts)
		So(err, ShouldNotBeNil)
	})
}
