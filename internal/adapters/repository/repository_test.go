package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xg/internal/domain/evaluate"
	"github.com/okian/xg/internal/domain/model"
)

func sampleRows() []model.TrainingRow {
	return []model.TrainingRow{
		{
			Meta: model.RowMeta{ID: 0, GameID: 2023020001, Season: "20232024", EventIdx: 12},
			Features: model.Features{
				Distance: 8.5, Angle: 20.6, ShotType: "wrist", Period: 1,
				LagEvent1: "faceoff", LagEvent2: "shot-on-goal", LagZone: "O",
				Elapsed: 2, Lateral: 14, Rebound: true,
			},
			Label:  model.OutcomeGoal,
			Danger: true,
		},
		{
			Meta: model.RowMeta{ID: 1, GameID: 2023020001, Season: "20232024", EventIdx: 40},
			Features: model.Features{
				Distance: 55.2, Angle: 3.1, ShotType: "slap", Period: 2, PowerPlay: true,
				LagEvent1: "hit", LagEvent2: "giveaway", LagZone: "N", Elapsed: 17,
			},
			Label: model.OutcomeShotAttempt,
		},
	}
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a SQLite store", t, func() {
		ctx := context.Background()
		store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "xg.db"), WithBusyTimeout(time.Second))
		So(err, ShouldBeNil)
		defer store.Close()

		Convey("When saving and loading the training table", func() {
			So(store.SaveRows(ctx, "run-1", sampleRows()), ShouldBeNil)
			got, err := store.Rows(ctx, "run-1")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, sampleRows())

			Convey("Then saving again replaces the table", func() {
				So(store.SaveRows(ctx, "run-1", sampleRows()[:1]), ShouldBeNil)
				got, err := store.Rows(ctx, "run-1")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})

			Convey("Then other runs are untouched", func() {
				got, err := store.Rows(ctx, "run-2")
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When saving candidates", func() {
			cands := []CandidateRecord{
				{Stage: model.StageSelect, Name: "geometry", Recipe: "geometry", Mean: 0.71, StdErr: 0.01, Folds: 10, Rank: 2},
				{Stage: model.StageSelect, Name: "all", Recipe: "all", Mean: 0.74, StdErr: 0.01, Folds: 10, Rank: 1},
				{
					Stage: model.StageTune, Name: "cfg-3", Recipe: "all",
					Hyper: model.Hyperparameters{Rounds: 120, MaxDepth: 4, ColSample: 0.5, MinLeaf: 20, Subsample: 0.8},
					Mean:  0.7, Folds: 3, EliminatedAfter: 3, Rank: 1,
				},
			}
			So(store.SaveCandidates(ctx, "run-1", cands), ShouldBeNil)

			got, err := store.Candidates(ctx, "run-1")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			So(got[0].Name, ShouldEqual, "all")
			So(got[1].Name, ShouldEqual, "geometry")
			So(got[2].Hyper, ShouldResemble, cands[2].Hyper)
			So(got[2].EliminatedAfter, ShouldEqual, 3)
		})

		Convey("When saving diagnostics", func() {
			rep := evaluate.Report{
				TrainAUC: 0.78, TestAUC: 0.75, TestShots: 400,
				Calibration: evaluate.Calibration{Actual: 30, Predicted: 31.5, AbsDiff: 1.5, PctDiff: 5},
				Bands:       []evaluate.Band{{Band: 1, Shots: 80, Goals: 1}},
			}
			first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			So(store.SaveDiagnostics(ctx, "run-1", "all", 1600, rep, first), ShouldBeNil)
			So(store.SaveDiagnostics(ctx, "run-2", "geometry", 1500, rep, first.Add(time.Hour)), ShouldBeNil)

			Convey("Then the run summary is readable", func() {
				sum, err := store.Run(ctx, "run-1")
				So(err, ShouldBeNil)
				So(sum.Rows, ShouldEqual, 1600)
				So(sum.Recipe, ShouldEqual, "all")
				So(sum.TestAUC, ShouldEqual, 0.75)
				So(sum.CalibrationPct, ShouldEqual, 5.0)
				So(sum.CreatedAt.Equal(first), ShouldBeTrue)
			})

			Convey("Then the full report round trips", func() {
				got, err := store.Report(ctx, "run-1")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, rep)
			})

			Convey("Then runs list newest first", func() {
				runs, err := store.Runs(ctx, 10)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 2)
				So(runs[0].RunID, ShouldEqual, "run-2")
			})

			Convey("Then unknown runs are not found", func() {
				_, err := store.Run(ctx, "missing")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				_, err = store.Report(ctx, "missing")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an in-memory store", t, func() {
		store, err := OpenSQLite(context.Background(), ":memory:")
		So(err, ShouldBeNil)
		defer store.Close()
		So(store.SaveRows(context.Background(), "r", sampleRows()), ShouldBeNil)
		got, err := store.Rows(context.Background(), "r")
		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 2)
	})
}

func TestParquetExport(t *testing.T) {
	Convey("Given an exported training table", t, func() {
		path := filepath.Join(t.TempDir(), "rows.parquet")
		So(WriteParquet(path, sampleRows()), ShouldBeNil)

		Convey("When read back", func() {
			got, err := ReadParquet(path)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, sampleRows())
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := ReadParquet(filepath.Join(t.TempDir(), "none.parquet"))
		So(errors.Is(err, ErrRead), ShouldBeTrue)
	})
}
