package evaluate

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/model"
)

// byDistance predicts from a fixed lookup keyed by the row's distance.
type byDistance map[float64]float64

func (m byDistance) PredictRows(rows []model.TrainingRow) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = m[rows[i].Features.Distance]
	}
	return out
}

func row(distance float64, goal, dangerous bool) model.TrainingRow {
	r := model.TrainingRow{
		Features: model.Features{Distance: distance},
		Label:    model.OutcomeShotAttempt,
		Danger:   dangerous,
	}
	if goal {
		r.Label = model.OutcomeGoal
	}
	return r
}

func TestEvaluate(t *testing.T) {
	Convey("Given ten test shots with two goals", t, func() {
		p := byDistance{}
		var test []model.TrainingRow
		for i := 1; i <= 10; i++ {
			d := float64(i)
			p[d] = float64(11-i) / 50 // 0.20 down to 0.02
			test = append(test, row(d, i <= 2, i <= 3))
		}
		train := []model.TrainingRow{row(1, true, true), row(10, false, false)}

		rep, err := Evaluate(p, train, test)
		So(err, ShouldBeNil)

		Convey("Then AUC reflects the perfect ranking", func() {
			So(rep.TrainAUC, ShouldAlmostEqual, 1.0)
			So(rep.TestAUC, ShouldAlmostEqual, 1.0)
			So(rep.TestShots, ShouldEqual, 10)
		})

		Convey("Then calibration compares summed probabilities to goals", func() {
			So(rep.Calibration.Actual, ShouldEqual, 2.0)
			So(rep.Calibration.Predicted, ShouldAlmostEqual, 1.1)
			So(rep.Calibration.AbsDiff, ShouldAlmostEqual, 0.9)
			So(rep.Calibration.PctDiff, ShouldAlmostEqual, -45.0)
			So(rep.Calibration.Within(10), ShouldBeFalse)
			So(rep.Calibration.Within(50), ShouldBeTrue)
		})

		Convey("Then five bands of two shots ascend in probability", func() {
			So(len(rep.Bands), ShouldEqual, 5)
			for i, b := range rep.Bands {
				So(b.Band, ShouldEqual, i+1)
				So(b.Shots, ShouldEqual, 2)
			}
			top := rep.Bands[4]
			So(top.Goals, ShouldEqual, 2)
			So(top.PctGoals, ShouldAlmostEqual, 100.0)
			So(top.MinProb, ShouldAlmostEqual, 0.18)
			So(top.MedianProb, ShouldAlmostEqual, 0.18)
			So(top.MeanProb, ShouldAlmostEqual, 0.19)
			So(rep.Bands[0].MinProb, ShouldAlmostEqual, 0.02)
		})

		Convey("Then danger coverage counts flagged goals", func() {
			So(rep.RuleDanger.Flagged, ShouldEqual, 3)
			So(rep.RuleDanger.ShareOfGoals, ShouldAlmostEqual, 1.0)
			So(rep.RuleDanger.ShareOfShots, ShouldAlmostEqual, 0.3)
			// probabilities at or above 0.064: 0.20 .. 0.08, the first seven shots.
			So(rep.ModelDanger.Flagged, ShouldEqual, 7)
			So(rep.ModelDanger.GoalsFlagged, ShouldEqual, 2)
		})
	})

	Convey("Given empty partitions", t, func() {
		_, err := Evaluate(byDistance{}, nil, []model.TrainingRow{row(1, true, false)})
		So(errors.Is(err, ErrNoRows), ShouldBeTrue)
	})

	Convey("Given a test partition without goals", t, func() {
		p := byDistance{1: 0.1, 2: 0.2}
		train := []model.TrainingRow{row(1, false, false), row(2, true, false)}
		_, err := Evaluate(p, train, []model.TrainingRow{row(1, false, false), row(2, false, false)})
		So(err, ShouldNotBeNil)
	})
}
