package cv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// AUC is the area under the ROC curve of scores against labels. Tied
// scores earn half credit.
func AUC(scores []float64, labels []bool) (float64, error) {
	if len(scores) != len(labels) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrShape, len(scores), len(labels))
	}
	var pos, neg int
	for i, l := range labels {
		if math.IsNaN(scores[i]) || math.IsInf(scores[i], 0) {
			return 0, fmt.Errorf("%w at %d", ErrNonFinite, i)
		}
		if l {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, ErrSingleClass
	}

	y := append([]float64(nil), scores...)
	classes := append([]bool(nil), labels...)
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// Summary is the mean and standard error of per-fold scores.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdErr float64 `json:"std_err"`
	N      int     `json:"n"`
}

// Summarize computes a Summary. A single score has zero standard error.
func Summarize(scores []float64) Summary {
	s := Summary{N: len(scores)}
	switch len(scores) {
	case 0:
		return s
	case 1:
		s.Mean = scores[0]
		return s
	}
	mean, std := stat.MeanStdDev(scores, nil)
	s.Mean = mean
	s.StdErr = std / math.Sqrt(float64(len(scores)))
	return s
}

// Better orders summaries by mean descending, then standard error
// ascending.
func Better(a, b Summary) bool {
	if a.Mean != b.Mean {
		return a.Mean > b.Mean
	}
	return a.StdErr < b.StdErr
}
