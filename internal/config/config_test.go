package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/xg/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Folds, convey.ShouldEqual, 10)
			convey.So(cfg.RareThreshold, convey.ShouldEqual, 0.05)
			convey.So(cfg.OutcomePolicy, convey.ShouldEqual, "attempts")
			convey.So(cfg.TuneCandidates, convey.ShouldEqual, 30)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out-of-range values", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"folds", func(c *config.Config) { c.Folds = 1 }},
			{"test_fraction", func(c *config.Config) { c.TestFraction = 1 }},
			{"outcome_policy", func(c *config.Config) { c.OutcomePolicy = "blocked" }},
			{"burn_in", func(c *config.Config) { c.TuneBurnIn = 11 }},
			{"depth", func(c *config.Config) { c.DepthMax = 1 }},
			{"colsample", func(c *config.Config) { c.ColSampleMax = 1.5 }},
			{"input_format", func(c *config.Config) { c.InputFormat = "csv" }},
			{"addr", func(c *config.Config) { c.Addr = "" }},
		}
		for _, tc := range cases {
			convey.Convey("When "+tc.name+" is invalid", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
