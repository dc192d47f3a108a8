package encode

import (
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/model"
)

func rowsWithShotTypes(types map[string]int) []model.TrainingRow {
	var rows []model.TrainingRow
	keys := []string{"wrist", "slap", "snap", "backhand", "wrap-around"}
	for _, k := range keys {
		for i := 0; i < types[k]; i++ {
			rows = append(rows, model.TrainingRow{
				Meta: model.RowMeta{ID: model.RowID(len(rows)), GameID: 99},
				Features: model.Features{
					Distance: float64(10 + i), Angle: 5, ShotType: k, Period: 1,
					LagEvent1: "faceoff", LagEvent2: "unknown", LagZone: "O",
					Rebound: i%2 == 0,
				},
			})
		}
	}
	return rows
}

func TestRecipes(t *testing.T) {
	Convey("Given the candidate recipes", t, func() {
		rs := Recipes()
		So(len(rs), ShouldEqual, 7)

		Convey("Then every recipe is valid and starts from geometry", func() {
			for _, r := range rs {
				So(r.Validate(), ShouldBeNil)
				So(r.Predictors[0], ShouldEqual, Distance)
				So(r.Predictors[1], ShouldEqual, Angle)
				So(r.RareThreshold, ShouldEqual, DefaultRareThreshold)
			}
		})

		Convey("Then lookup by name works", func() {
			r, err := RecipeByName("all_interactions")
			So(err, ShouldBeNil)
			So(len(r.Interactions), ShouldBeGreaterThan, 0)
			_, err = RecipeByName("nope")
			So(errors.Is(err, ErrUnknownRecipe), ShouldBeTrue)
		})

		Convey("Then categorical interaction terms are rejected", func() {
			r := Recipe{Name: "bad", Predictors: []string{Distance}, Interactions: [][2]string{{Distance, ShotType}}}
			So(errors.Is(r.Validate(), ErrUnknownPredictor), ShouldBeTrue)
			r = Recipe{Name: "bad", Predictors: []string{"row_id"}}
			So(errors.Is(r.Validate(), ErrUnknownPredictor), ShouldBeTrue)
		})
	})
}

func TestEncoder(t *testing.T) {
	Convey("Given rows where one shot type is rare", t, func() {
		rows := rowsWithShotTypes(map[string]int{"wrist": 60, "slap": 30, "snap": 8, "backhand": 2})
		r, _ := RecipeByName("geometry_shot_type")

		enc, err := Fit(r, rows)
		So(err, ShouldBeNil)

		Convey("Then levels under five percent collapse into other", func() {
			So(enc.Levels[ShotType], ShouldResemble, []string{"slap", "snap", "wrist"})
			So(enc.Columns, ShouldResemble, []string{
				"distance", "angle",
				"shot_type=slap", "shot_type=snap", "shot_type=wrist", "shot_type=other",
			})
		})

		Convey("When transforming", func() {
			x, err := enc.Transform(rows)
			So(err, ShouldBeNil)
			n, p := x.Dims()
			So(n, ShouldEqual, 100)
			So(p, ShouldEqual, 6)

			Convey("Then one-hot columns sum to one per row", func() {
				for i := 0; i < n; i++ {
					So(x.At(i, 2)+x.At(i, 3)+x.At(i, 4)+x.At(i, 5), ShouldEqual, 1.0)
				}
			})

			Convey("Then rare and unseen levels land in other", func() {
				So(x.At(99, 5), ShouldEqual, 1.0) // backhand
				v := enc.Vector(model.Features{Distance: 3, Angle: 1, ShotType: "tip-in"})
				So(v, ShouldResemble, []float64{3, 1, 0, 0, 0, 1})
			})
		})

		Convey("When the encoder round-trips through JSON", func() {
			raw, err := json.Marshal(enc)
			So(err, ShouldBeNil)
			var back Encoder
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			So(back.Restore(), ShouldBeNil)
			f := model.Features{Distance: 12, Angle: 30, ShotType: "slap"}
			So(back.Vector(f), ShouldResemble, enc.Vector(f))
		})
	})

	Convey("Given the interaction recipe", t, func() {
		rows := rowsWithShotTypes(map[string]int{"wrist": 10})
		r, _ := RecipeByName("all_interactions")
		enc, err := Fit(r, rows)
		So(err, ShouldBeNil)

		Convey("Then products are appended after the predictors", func() {
			f := model.Features{Distance: 10, Angle: 20, Lateral: 3, Rebound: true, PowerPlay: false}
			v := enc.Vector(f)
			w := enc.Width()
			So(enc.Columns[w-4], ShouldEqual, "distance:angle")
			So(v[w-4], ShouldEqual, 200.0)
			So(v[w-3], ShouldEqual, 10.0)
			So(v[w-2], ShouldEqual, 60.0)
			So(v[w-1], ShouldEqual, 0.0)
		})

		Convey("Then no column refers to row metadata", func() {
			for _, c := range enc.Columns {
				So(c, ShouldNotContainSubstring, "id")
				So(c, ShouldNotContainSubstring, "game")
			}
		})
	})

	Convey("Given no rows", t, func() {
		_, err := Fit(Recipes()[0], nil)
		So(errors.Is(err, ErrEmpty), ShouldBeTrue)
	})
}
