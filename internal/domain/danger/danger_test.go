package danger

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDangerous(t *testing.T) {
	Convey("Given the danger cone", t, func() {
		cases := []struct {
			name     string
			distance float64
			angle    float64
			want     bool
		}{
			{"point blank from any angle", 2, 170, true},
			{"mid range at a wide angle", 28, 60, false},
			{"mid range inside the cone", 29, 50, true},
			{"slot at a moderate angle", 19, 61, true},
			{"close but behind the net", 8, 120, false},
			{"long range straight on", 45, 0, false},
			{"exactly thirty feet", 30, 0, false},
		}
		for _, c := range cases {
			Convey("When the shot is "+c.name, func() {
				So(Dangerous(c.distance, c.angle), ShouldEqual, c.want)
			})
		}
	})

	Convey("Given model probabilities", t, func() {
		So(ByModel(0.064), ShouldBeTrue)
		So(ByModel(0.0639), ShouldBeFalse)
	})
}
