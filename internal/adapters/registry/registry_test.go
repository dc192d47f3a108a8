package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/boost"
	"github.com/okian/xg/internal/domain/encode"
	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/internal/domain/tune"
)

func artifact(runID string, created time.Time) *tune.Artifact {
	rows := []model.TrainingRow{
		{Features: model.Features{Distance: 10, Angle: 15}, Label: model.OutcomeGoal},
		{Features: model.Features{Distance: 50, Angle: 5}, Label: model.OutcomeShotAttempt},
	}
	recipe, err := encode.RecipeByName("geometry")
	So(err, ShouldBeNil)
	enc, err := encode.Fit(recipe, rows)
	So(err, ShouldBeNil)
	return &tune.Artifact{
		RunID:     runID,
		Recipe:    recipe.Name,
		Encoder:   enc,
		Model:     &boost.Model{Base: -2, Width: enc.Width()},
		Params:    boost.DefaultParams(),
		CreatedAt: created,
	}
}

func TestRedisRegistry(t *testing.T) {
	Convey("Given a Redis registry", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		defer mr.Close()

		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()
		reg := NewRedis(rdb, WithTTL(time.Hour))
		ctx := context.Background()

		Convey("When nothing is published", func() {
			_, err := reg.Latest(ctx)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = reg.Get(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When two models are published", func() {
			t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			So(reg.Put(ctx, artifact("run-a", t0)), ShouldBeNil)
			So(reg.Put(ctx, artifact("run-b", t0.Add(time.Minute))), ShouldBeNil)

			Convey("Then latest points at the second", func() {
				a, err := reg.Latest(ctx)
				So(err, ShouldBeNil)
				So(a.RunID, ShouldEqual, "run-b")
				So(a.PredictProbability(model.Features{Distance: 20}), ShouldAlmostEqual, 0.11920292202211755)
			})

			Convey("Then both are retrievable by run id", func() {
				a, err := reg.Get(ctx, "run-a")
				So(err, ShouldBeNil)
				So(a.Recipe, ShouldEqual, "geometry")
				So(mr.Exists(ModelKey("run-a")), ShouldBeTrue)
				So(mr.TTL(ModelKey("run-a")), ShouldEqual, time.Hour)
			})

			Convey("Then runs list newest first", func() {
				ids, err := reg.Runs(ctx, 5)
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{"run-b", "run-a"})
			})
		})

		Convey("When a stored artifact is corrupt", func() {
			So(mr.Set(ModelKey("bad"), "{}"), ShouldBeNil)
			_, err := reg.Get(ctx, "bad")
			So(errors.Is(err, tune.ErrArtifact), ShouldBeTrue)
		})
	})
}

func TestFileRegistry(t *testing.T) {
	Convey("Given a file registry", t, func() {
		ctx := context.Background()
		reg := NewFile(filepath.Join(t.TempDir(), "models", "xg.json"))

		Convey("When empty", func() {
			_, err := reg.Latest(ctx)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When a model is written", func() {
			So(reg.Put(ctx, artifact("run-1", time.Now())), ShouldBeNil)

			a, err := reg.Get(ctx, "run-1")
			So(err, ShouldBeNil)
			So(a.Encoder.Width(), ShouldEqual, a.Model.Width)

			_, err = reg.Get(ctx, "run-2")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given registry settings", t, func() {
		ctx := context.Background()

		Convey("When nothing is configured", func() {
			reg, closeReg, err := Open(ctx, "", "")
			So(err, ShouldBeNil)
			So(reg, ShouldBeNil)
			So(closeReg(), ShouldBeNil)
		})

		Convey("When a model path is configured", func() {
			reg, _, err := Open(ctx, "", filepath.Join(t.TempDir(), "model.json"))
			So(err, ShouldBeNil)
			_, ok := reg.(*FileRegistry)
			So(ok, ShouldBeTrue)
		})

		Convey("When redis is reachable", func() {
			mr := miniredis.RunT(t)
			reg, closeReg, err := Open(ctx, mr.Addr(), "ignored.json", WithTTL(time.Hour))
			So(err, ShouldBeNil)
			_, ok := reg.(*RedisRegistry)
			So(ok, ShouldBeTrue)
			So(closeReg(), ShouldBeNil)
		})

		Convey("When redis is unreachable", func() {
			_, closeReg, err := Open(ctx, "127.0.0.1:1", "")
			So(errors.Is(err, ErrStore), ShouldBeTrue)
			So(closeReg(), ShouldBeNil)
		})
	})
}
