// Package evaluate computes hold-out diagnostics for a trained classifier.
package evaluate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/danger"
	"github.com/okian/xg/internal/domain/model"
)

// Bands is the number of equal-sized probability buckets.
const Bands = 5

// ErrNoRows is returned when a partition is empty.
var ErrNoRows = errors.New("no rows to evaluate")

// Predictor scores training rows.
type Predictor interface {
	PredictRows(rows []model.TrainingRow) []float64
}

// Calibration compares predicted and actual goals on the test partition.
type Calibration struct {
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
	AbsDiff   float64 `json:"abs_diff"`
	// PctDiff is (Predicted-Actual)/Actual in percent; 0 without goals.
	PctDiff float64 `json:"pct_diff"`
}

// Within reports whether |PctDiff| is at most tolerancePct.
func (c Calibration) Within(tolerancePct float64) bool {
	return math.Abs(c.PctDiff) <= tolerancePct
}

// Band is one probability bucket, lowest first.
type Band struct {
	Band       int     `json:"band"`
	Shots      int     `json:"shots"`
	Goals      int     `json:"goals"`
	PctGoals   float64 `json:"pct_goals"`
	MinProb    float64 `json:"min_prob"`
	MedianProb float64 `json:"median_prob"`
	MeanProb   float64 `json:"mean_prob"`
}

// Coverage describes how a danger flag splits the test partition.
type Coverage struct {
	Flagged      int     `json:"flagged"`
	GoalsFlagged int     `json:"goals_flagged"`
	ShareOfShots float64 `json:"share_of_shots"`
	ShareOfGoals float64 `json:"share_of_goals"`
}

// Report is the full diagnostic record of a run.
type Report struct {
	TrainAUC    float64     `json:"train_auc"`
	TestAUC     float64     `json:"test_auc"`
	TestShots   int         `json:"test_shots"`
	Calibration Calibration `json:"calibration"`
	Bands       []Band      `json:"bands"`
	RuleDanger  Coverage    `json:"rule_danger"`
	ModelDanger Coverage    `json:"model_danger"`
}

// Evaluate scores train and test with p and builds the Report.
func Evaluate(p Predictor, train, test []model.TrainingRow) (Report, error) {
	if len(train) == 0 || len(test) == 0 {
		return Report{}, ErrNoRows
	}
	var rep Report
	var err error

	if rep.TrainAUC, err = cv.AUC(p.PredictRows(train), model.Labels(train)); err != nil {
		return Report{}, fmt.Errorf("train auc: %w", err)
	}
	probs := p.PredictRows(test)
	labels := model.Labels(test)
	if rep.TestAUC, err = cv.AUC(probs, labels); err != nil {
		return Report{}, fmt.Errorf("test auc: %w", err)
	}
	rep.TestShots = len(test)
	rep.Calibration = calibrate(probs, labels)
	rep.Bands = bands(probs, labels)

	rule := make([]bool, len(test))
	byModel := make([]bool, len(test))
	for i := range test {
		rule[i] = test[i].Danger
		byModel[i] = danger.ByModel(probs[i])
	}
	rep.RuleDanger = coverage(rule, labels)
	rep.ModelDanger = coverage(byModel, labels)
	return rep, nil
}

func calibrate(probs []float64, labels []bool) Calibration {
	var c Calibration
	for i, p := range probs {
		c.Predicted += p
		if labels[i] {
			c.Actual++
		}
	}
	c.AbsDiff = math.Abs(c.Predicted - c.Actual)
	if c.Actual > 0 {
		c.PctDiff = (c.Predicted - c.Actual) / c.Actual * 100
	}
	return c
}

// bands sorts predictions ascending and cuts them into Bands buckets whose
// sizes differ by at most one.
func bands(probs []float64, labels []bool) []Band {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] < probs[idx[b]] })

	totalGoals := 0
	for _, l := range labels {
		if l {
			totalGoals++
		}
	}

	n := len(probs)
	out := make([]Band, 0, Bands)
	for b := 0; b < Bands; b++ {
		lo, hi := b*n/Bands, (b+1)*n/Bands
		if lo == hi {
			continue
		}
		vals := make([]float64, 0, hi-lo)
		band := Band{Band: b + 1, Shots: hi - lo}
		for _, i := range idx[lo:hi] {
			vals = append(vals, probs[i])
			if labels[i] {
				band.Goals++
			}
		}
		band.MinProb = vals[0]
		band.MedianProb = stat.Quantile(0.5, stat.Empirical, vals, nil)
		band.MeanProb = stat.Mean(vals, nil)
		if totalGoals > 0 {
			band.PctGoals = float64(band.Goals) / float64(totalGoals) * 100
		}
		out = append(out, band)
	}
	return out
}

func coverage(flags, labels []bool) Coverage {
	var c Coverage
	goals := 0
	for i, f := range flags {
		if labels[i] {
			goals++
		}
		if !f {
			continue
		}
		c.Flagged++
		if labels[i] {
			c.GoalsFlagged++
		}
	}
	if len(flags) > 0 {
		c.ShareOfShots = float64(c.Flagged) / float64(len(flags))
	}
	if goals > 0 {
		c.ShareOfGoals = float64(c.GoalsFlagged) / float64(goals)
	}
	return c
}
