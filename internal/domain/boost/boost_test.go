package boost

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/xg/internal/domain/model"
)

// synthetic returns rows where the label depends on column 0 only; column 1
// is noise.
func synthetic(n int, seed int64) (*mat.Dense, []bool) {
	r := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 2, nil)
	y := make([]bool, n)
	for i := 0; i < n; i++ {
		a := r.Float64() * 60
		x.Set(i, 0, a)
		x.Set(i, 1, r.Float64())
		p := 0.3
		if a > 30 {
			p = 0.02
		}
		y[i] = r.Float64() < p
	}
	return x, y
}

func small() Params {
	p := DefaultParams()
	p.Rounds = 30
	p.MinLeaf = 10
	return p
}

func TestFit(t *testing.T) {
	Convey("Given labels driven by one feature", t, func() {
		x, y := synthetic(2000, 1)

		m, err := Fit(x, y, small())
		So(err, ShouldBeNil)
		So(len(m.Trees), ShouldEqual, 30)
		So(m.Width, ShouldEqual, 2)

		Convey("Then close shots score higher than far shots", func() {
			near := m.PredictProba([]float64{10, 0.5})
			far := m.PredictProba([]float64{50, 0.5})
			So(near, ShouldBeGreaterThan, far)
			So(near, ShouldBeBetween, 0.15, 0.5)
			So(far, ShouldBeBetween, 0.0, 0.12)
		})

		Convey("Then the informative feature dominates importance", func() {
			So(m.Importance[0], ShouldBeGreaterThan, m.Importance[1])
		})

		Convey("Then trees respect the depth limit", func() {
			for i := range m.Trees {
				So(m.Trees[i].Depth(), ShouldBeLessThanOrEqualTo, 3)
			}
		})

		Convey("Then every prediction is a probability", func() {
			for _, p := range m.PredictMatrix(x) {
				So(p, ShouldBeBetween, 0.0, 1.0)
			}
		})

		Convey("Then the model survives JSON", func() {
			raw, err := json.Marshal(m)
			So(err, ShouldBeNil)
			var back Model
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			row := []float64{22.5, 0.1}
			So(back.PredictProba(row), ShouldEqual, m.PredictProba(row))
		})
	})

	Convey("Given a fixed seed with subsampling", t, func() {
		x, y := synthetic(500, 2)
		p := small()
		p.Subsample = 0.6
		p.ColSample = 0.5
		p.Seed = 11

		a, err := Fit(x, y, p)
		So(err, ShouldBeNil)
		b, err := Fit(x, y, p)
		So(err, ShouldBeNil)

		Convey("Then fits are identical", func() {
			So(a.PredictMatrix(x), ShouldResemble, b.PredictMatrix(x))
		})
	})

	Convey("Given degenerate input", t, func() {
		x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

		Convey("When every label is negative", func() {
			_, err := Fit(x, []bool{false, false, false, false}, small())
			So(errors.Is(err, ErrSingleClass), ShouldBeTrue)
		})

		Convey("When labels and rows disagree", func() {
			_, err := Fit(x, []bool{true, false}, small())
			So(errors.Is(err, ErrShape), ShouldBeTrue)
		})

		Convey("When parameters are out of range", func() {
			p := small()
			p.ColSample = 0
			_, err := Fit(x, []bool{true, false, false, true}, p)
			So(errors.Is(err, ErrInvalidParams), ShouldBeTrue)
		})

		Convey("When a feature is constant", func() {
			c := mat.NewDense(40, 1, nil)
			y := make([]bool, 40)
			y[0] = true
			m, err := Fit(c, y, small())
			So(err, ShouldBeNil)
			So(m.PredictProba([]float64{0}), ShouldAlmostEqual, 1.0/40, 0.001)
		})
	})

	Convey("Given tuned hyperparameters", t, func() {
		h := model.Hyperparameters{Rounds: 5, MaxDepth: 2, ColSample: 1, MinLeaf: 5, Subsample: 1}
		p := WithHyper(h, 0.2, 9)
		So(p.Rounds, ShouldEqual, 5)
		So(p.LearningRate, ShouldEqual, 0.2)
		So(p.Lambda, ShouldEqual, 1.0)
		So(p.Seed, ShouldEqual, uint64(9))
		So(p.Validate(), ShouldBeNil)
	})
}
