package rink

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/model"
)

func ev(team, period int, zone string, x, y float64) model.Event {
	return model.Event{
		TeamID: team, Period: period, Zone: zone,
		HomeTeamID: 1, AwayTeamID: 2,
		Type: model.ShotOnGoal,
		X:    model.Float(x), Y: model.Float(y),
	}
}

func TestGeometry(t *testing.T) {
	Convey("Given shot locations in the fixed frame", t, func() {
		Convey("When the shot is straight in front of the net", func() {
			d, a := Geometry(79, 0)
			So(d, ShouldEqual, 10.0)
			So(a, ShouldEqual, 0.0)
		})

		Convey("When the shot is off center", func() {
			d, a := Geometry(59, 30)
			So(d, ShouldEqual, 42.4)
			So(a, ShouldEqual, 45.0)
		})

		Convey("When the shot is taken on the goal line", func() {
			d, a := Geometry(89, -6)
			So(d, ShouldEqual, 6.0)
			So(a, ShouldEqual, 90.0)
		})

		Convey("When the shot comes from behind the net", func() {
			d, a := Geometry(94, 5)
			So(d, ShouldEqual, 7.1)
			So(a, ShouldEqual, 135.0)
		})

		Convey("When the shot is at the net center", func() {
			d, a := Geometry(89, 0)
			So(d, ShouldEqual, 0.0)
			So(a, ShouldEqual, 0.0)
		})

		Convey("Then distance and angle stay in bounds anywhere on the ice", func() {
			r := rand.New(rand.NewSource(7))
			for i := 0; i < 5000; i++ {
				x := r.Float64()*200 - 100
				y := r.Float64()*85 - 42.5
				d, a := Geometry(x, y)
				So(d, ShouldBeGreaterThanOrEqualTo, 0.0)
				So(a, ShouldBeBetweenOrEqual, 0.0, 180.0)
			}
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given a period where the home team attacks positive x", t, func() {
		events := []model.Event{
			ev(1, 1, "O", 70, 10),
			ev(1, 1, "O", 60, -5),
			ev(1, 1, "D", -70, 3),
			ev(2, 1, "O", -75, 12),
			ev(2, 1, "O", -50, -20),
		}
		fixed := Normalize(events)

		Convey("Then home coordinates pass through", func() {
			So(*fixed[0], ShouldResemble, Point{X: 70, Y: 10})
			So(*fixed[2], ShouldResemble, Point{X: -70, Y: 3})
		})

		Convey("Then away coordinates are rotated to attack positive x", func() {
			So(*fixed[3], ShouldResemble, Point{X: 75, Y: -12})
			So(*fixed[4], ShouldResemble, Point{X: 50, Y: 20})
		})

		Convey("When normalizing the fixed coordinates again", func() {
			again := make([]model.Event, len(events))
			copy(again, events)
			for i := range again {
				again[i].X = model.Float(fixed[i].X)
				again[i].Y = model.Float(fixed[i].Y)
			}
			twice := Normalize(again)

			Convey("Then nothing flips a second time", func() {
				for i := range fixed {
					So(*twice[i], ShouldResemble, *fixed[i])
				}
			})
		})
	})

	Convey("Given a team with no offensive-zone events in a period", t, func() {
		events := []model.Event{
			ev(1, 2, "D", -60, 4),
			ev(1, 2, "N", 10, 4),
			ev(2, 2, "O", 60, 4),
		}
		fixed := Normalize(events)

		Convey("Then its coordinates are undefined instead of failing", func() {
			So(fixed[0], ShouldBeNil)
			So(fixed[1], ShouldBeNil)
			So(fixed[2], ShouldNotBeNil)
		})
	})

	Convey("Given events without coordinates or team", t, func() {
		events := []model.Event{
			ev(1, 1, "O", 60, 0),
			{TeamID: 1, Period: 1, Zone: "O"},
			{Period: 1, X: model.Float(1), Y: model.Float(1)},
		}
		fixed := Normalize(events)
		So(fixed[0], ShouldNotBeNil)
		So(fixed[1], ShouldBeNil)
		So(fixed[2], ShouldBeNil)
	})

	Convey("Given directions per slice", t, func() {
		dirs := Directions([]model.Event{
			ev(1, 1, "O", 60, 0),
			ev(1, 2, "O", -60, 0),
		})
		So(dirs[Slice{Team: 1, Period: 1}], ShouldEqual, 1.0)
		So(dirs[Slice{Team: 1, Period: 2}], ShouldEqual, -1.0)
		_, ok := dirs[Slice{Team: 2, Period: 1}]
		So(ok, ShouldBeFalse)
	})
}
