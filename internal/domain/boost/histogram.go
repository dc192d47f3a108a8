package boost

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// maxBins caps the candidate thresholds per feature.
const maxBins = 64

// binned is a column-major quantized copy of the training matrix.
type binned struct {
	cuts [][]float64 // per feature, ascending thresholds
	bins [][]uint8   // per feature, per row
}

// quantize places every value of x into one of at most maxBins+1 bins per
// feature. Bin b holds values in (cuts[b-1], cuts[b]].
func quantize(x *mat.Dense) *binned {
	n, p := x.Dims()
	b := &binned{cuts: make([][]float64, p), bins: make([][]uint8, p)}
	col := make([]float64, n)
	for f := 0; f < p; f++ {
		mat.Col(col, f, x)
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		cuts := cutPoints(sorted)
		b.cuts[f] = cuts
		bins := make([]uint8, n)
		for i, v := range col {
			bins[i] = uint8(sort.SearchFloat64s(cuts, v))
		}
		b.bins[f] = bins
	}
	return b
}

// cutPoints picks thresholds from sorted values. The largest value is never
// a threshold since nothing would fall to its right.
func cutPoints(sorted []float64) []float64 {
	uniq := make([]float64, 0, maxBins)
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			uniq = append(uniq, v)
			if len(uniq) > maxBins {
				break
			}
		}
	}
	if len(uniq) <= maxBins {
		if len(uniq) == 0 {
			return nil
		}
		return uniq[:len(uniq)-1]
	}

	cuts := make([]float64, 0, maxBins)
	last := sorted[len(sorted)-1]
	for k := 1; k < maxBins; k++ {
		q := stat.Quantile(float64(k)/maxBins, stat.Empirical, sorted, nil)
		if q == last || (len(cuts) > 0 && q == cuts[len(cuts)-1]) {
			continue
		}
		cuts = append(cuts, q)
	}
	return cuts
}
