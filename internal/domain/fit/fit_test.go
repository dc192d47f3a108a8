package fit

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/boost"
	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/model"
)

// shots returns rows where close shots score far more often.
func shots(n int, seed int64) []model.TrainingRow {
	r := rand.New(rand.NewSource(seed))
	rows := make([]model.TrainingRow, n)
	for i := range rows {
		d := 5 + r.Float64()*55
		p := 0.25
		if d > 25 {
			p = 0.03
		}
		rows[i] = model.TrainingRow{
			Meta:     model.RowMeta{ID: model.RowID(i)},
			Features: model.Features{Distance: d, Angle: r.Float64() * 80, ShotType: "wrist", Period: 1},
			Label:    model.OutcomeShotAttempt,
		}
		if r.Float64() < p {
			rows[i].Label = model.OutcomeGoal
		}
	}
	return rows
}

type fitterFunc func(ctx context.Context, job model.FitJob) (float64, error)

func (f fitterFunc) Fit(ctx context.Context, job model.FitJob) (float64, error) { return f(ctx, job) }

func quick() model.Hyperparameters {
	h := boost.DefaultParams().Hyperparameters
	h.Rounds = 20
	return h
}

func TestEvaluator(t *testing.T) {
	Convey("Given an evaluator over synthetic shots", t, func() {
		rows := shots(1500, 3)
		folds, err := cv.StratifiedFolds(model.Labels(rows), 3, 1)
		So(err, ShouldBeNil)
		ev := NewEvaluator(rows, folds, 0.1)
		ctx := context.Background()

		Convey("When fitting the geometry recipe on a fold", func() {
			auc, err := ev.Fit(ctx, model.FitJob{Recipe: "geometry", Hyper: quick(), Fold: 1, Seed: 5})
			So(err, ShouldBeNil)

			Convey("Then distance separates goals well above chance", func() {
				So(auc, ShouldBeGreaterThan, 0.65)
				So(auc, ShouldBeLessThanOrEqualTo, 1.0)
			})

			Convey("Then the same job reproduces the score", func() {
				again, _ := ev.Fit(ctx, model.FitJob{Recipe: "geometry", Hyper: quick(), Fold: 1, Seed: 5})
				So(again, ShouldEqual, auc)
			})
		})

		Convey("When the job is malformed", func() {
			_, err := ev.Fit(ctx, model.FitJob{Recipe: "geometry", Hyper: quick(), Fold: 9})
			So(errors.Is(err, ErrFoldRange), ShouldBeTrue)
			_, err = ev.Fit(ctx, model.FitJob{Recipe: "nope", Hyper: quick(), Fold: 0})
			So(err, ShouldNotBeNil)
			_, err = ev.Fit(ctx, model.FitJob{Recipe: "geometry", Fold: 0})
			So(errors.Is(err, boost.ErrInvalidParams), ShouldBeTrue)
		})
	})
}

func TestExecute(t *testing.T) {
	Convey("Given fitters that misbehave", t, func() {
		ctx := context.Background()
		job := model.FitJob{Index: 3, Candidate: 1}

		Convey("When the fit errors", func() {
			res := Execute(ctx, fitterFunc(func(context.Context, model.FitJob) (float64, error) {
				return 0.9, errors.New("singular")
			}), job)
			So(res.Failed(), ShouldBeTrue)
			So(res.AUC, ShouldEqual, model.WorstAUC)
			So(res.Job.Index, ShouldEqual, 3)
		})

		Convey("When the fit panics", func() {
			res := Execute(ctx, fitterFunc(func(context.Context, model.FitJob) (float64, error) {
				panic("index out of range")
			}), job)
			So(res.Failed(), ShouldBeTrue)
			So(res.Err.Error(), ShouldContainSubstring, "index out of range")
		})

		Convey("When running serially", func() {
			jobs := []model.FitJob{{Index: 0, Fold: 0}, {Index: 1, Fold: 1}, {Index: 2, Fold: 2}}
			out := Serial{Fitter: fitterFunc(func(_ context.Context, j model.FitJob) (float64, error) {
				return float64(j.Fold) / 10, nil
			})}.Run(ctx, jobs)
			So(len(out), ShouldEqual, 3)
			So(out[2].AUC, ShouldEqual, 0.2)
		})
	})
}

func TestSeed(t *testing.T) {
	Convey("Given job seeds", t, func() {
		So(Seed(42, 0, 0), ShouldEqual, Seed(42, 0, 0))
		So(Seed(42, 0, 1), ShouldNotEqual, Seed(42, 1, 0))
		So(Seed(42, 2, 3), ShouldNotEqual, Seed(43, 2, 3))
	})
}
