package sequence

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/model"
)

func at(order, sec int, typ model.EventType, y float64) model.EnrichedEvent {
	return model.EnrichedEvent{Event: model.Event{
		GameID: 1, Date: "2023-10-10", Period: 1,
		PeriodSeconds: sec, GameSeconds: sec, SortOrder: order,
		Type: typ, Zone: "O", Y: model.Float(y),
	}}
}

func TestLateral(t *testing.T) {
	Convey("Given consecutive y coordinates", t, func() {
		Convey("When the signs differ", func() {
			So(Lateral(model.Float(10), model.Float(-5)), ShouldEqual, 15.0)
		})
		Convey("When the signs match", func() {
			So(Lateral(model.Float(10), model.Float(6)), ShouldEqual, 4.0)
			So(Lateral(model.Float(-3), model.Float(-9)), ShouldEqual, 6.0)
		})
		Convey("When either side is missing", func() {
			So(Lateral(nil, model.Float(6)), ShouldEqual, 0.0)
			So(Lateral(model.Float(6), nil), ShouldEqual, 0.0)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a short stream", t, func() {
		events := []model.EnrichedEvent{
			at(1, 10, model.Faceoff, 0),
			at(2, 20, model.ShotOnGoal, 4),
			at(3, 22, model.ShotOnGoal, 6),
			at(4, 27, model.ShotOnGoal, 8),
		}
		out, err := Build(events)
		So(err, ShouldBeNil)
		So(len(out), ShouldEqual, 4)

		Convey("Then the first event gets the sentinels", func() {
			So(out[0].Lag, ShouldResemble, model.Lag{Type1: "unknown", Type2: "unknown", Zone: "unknown"})
		})

		Convey("Then lags look back one and two events", func() {
			So(out[2].Lag.Type1, ShouldEqual, "shot-on-goal")
			So(out[2].Lag.Type2, ShouldEqual, "faceoff")
			So(out[2].Lag.Zone, ShouldEqual, "O")
			So(out[2].Lag.Elapsed, ShouldEqual, 2.0)
			So(out[2].Lag.Lateral, ShouldEqual, 2.0)
		})

		Convey("Then a quick follow-up with lateral movement is a rebound", func() {
			So(out[2].Rebound, ShouldBeTrue)
		})

		Convey("Then a follow-up after five seconds is not", func() {
			So(out[3].Lag.Elapsed, ShouldEqual, 5.0)
			So(out[3].Rebound, ShouldBeFalse)
		})

		Convey("Then the input is left untouched", func() {
			So(events[2].Rebound, ShouldBeFalse)
		})
	})

	Convey("Given the rebound window", t, func() {
		events := []model.EnrichedEvent{
			at(1, 30, model.ShotOnGoal, 4),
			at(2, 33, model.ShotOnGoal, 8),
		}

		Convey("When the window is three seconds", func() {
			out, err := Build(events, WithReboundWindow(3, false))
			So(err, ShouldBeNil)
			So(out[1].Rebound, ShouldBeFalse)
		})

		Convey("When the window is four seconds", func() {
			out, err := Build(events, WithReboundWindow(4, false))
			So(err, ShouldBeNil)
			So(out[1].Rebound, ShouldBeTrue)
		})

		Convey("When the shots share a timestamp", func() {
			same := []model.EnrichedEvent{at(1, 30, model.ShotOnGoal, 4), at(2, 30, model.ShotOnGoal, 8)}
			out, _ := Build(same)
			So(out[1].Rebound, ShouldBeFalse)
			out, _ = Build(same, WithReboundWindow(4, true))
			So(out[1].Rebound, ShouldBeTrue)
		})

		Convey("When the puck barely moved across", func() {
			still := []model.EnrichedEvent{at(1, 30, model.ShotOnGoal, 4), at(2, 31, model.ShotOnGoal, 4.5)}
			out, _ := Build(still)
			So(out[1].Rebound, ShouldBeFalse)
		})
	})

	Convey("Given a penalty shot award", t, func() {
		pen := at(1, 100, model.Penalty, 0)
		pen.PenaltyDesc = "PS-Hooking on breakaway"
		events := []model.EnrichedEvent{pen, at(2, 100, model.Goal, 2)}
		out, err := Build(events)
		So(err, ShouldBeNil)
		So(out[1].PenaltyShot, ShouldBeTrue)
		So(out[0].PenaltyShot, ShouldBeFalse)
	})

	Convey("Given a feed-style penalty shot description", t, func() {
		pen := at(1, 100, model.Penalty, 0)
		pen.PenaltyDesc = "ps-hooking-on-breakaway"
		events := []model.EnrichedEvent{pen, at(2, 100, model.Goal, 2)}
		out, err := Build(events)
		So(err, ShouldBeNil)
		So(out[1].PenaltyShot, ShouldBeTrue)
	})

	Convey("Given a period change", t, func() {
		end := at(1, 1195, model.ShotOnGoal, 3)
		start := at(2, 12, model.MissedShot, 9)
		start.Period = 2
		start.GameSeconds = 1212
		out, err := Build([]model.EnrichedEvent{end, start})
		So(err, ShouldBeNil)
		So(out[1].Lag.Elapsed, ShouldBeLessThan, 0.0)
		So(out[1].Rebound, ShouldBeFalse)
	})

	Convey("Given events out of order", t, func() {
		events := []model.EnrichedEvent{at(2, 20, model.Hit, 0), at(1, 10, model.Hit, 0)}
		_, err := Build(events)
		So(errors.Is(err, ErrUnordered), ShouldBeTrue)
	})
}

func TestIsPenaltyShot(t *testing.T) {
	Convey("Given penalty descriptions", t, func() {
		So(IsPenaltyShot("ps-hooking-on-breakaway"), ShouldBeTrue)
		So(IsPenaltyShot("PS-Slashing"), ShouldBeTrue)
		So(IsPenaltyShot("Ps-tripping"), ShouldBeTrue)
		So(IsPenaltyShot("hooking"), ShouldBeFalse)
		So(IsPenaltyShot("p"), ShouldBeFalse)
		So(IsPenaltyShot(""), ShouldBeFalse)
	})
}

func TestLess(t *testing.T) {
	Convey("Given events with equal game time", t, func() {
		a := at(5, 0, model.Hit, 0).Event
		b := at(1, 0, model.Hit, 0).Event
		a.GameSeconds, b.GameSeconds = 0, 0

		Convey("Then the earlier period sorts first", func() {
			b.Period = 2
			So(Less(&a, &b), ShouldBeTrue)
			So(Less(&b, &a), ShouldBeFalse)
		})

		Convey("Then the earlier period time sorts first", func() {
			a.PeriodSeconds, b.PeriodSeconds = 10, 20
			So(Less(&a, &b), ShouldBeTrue)
			So(Less(&b, &a), ShouldBeFalse)
		})

		Convey("Then the sort order settles the rest", func() {
			So(Less(&b, &a), ShouldBeTrue)
			So(Less(&a, &b), ShouldBeFalse)
		})
	})
}
