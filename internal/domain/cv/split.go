// Package cv provides stratified splitting, fold assignment and the scoring
// statistics used during model search.
//
// All randomness comes from an explicit seed so assignments are
// reproducible.
package cv

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// Fold is one cross-validation partition, as row indices.
type Fold struct {
	Train []int
	Test  []int
}

// byClass returns row indices per class, each shuffled by rng.
func byClass(labels []bool, rng *rand.Rand) (pos, neg []int) {
	for i, l := range labels {
		if l {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })
	return pos, neg
}

// StratifiedSplit holds out testFraction of each class. Both returned index
// slices are ascending.
func StratifiedSplit(labels []bool, testFraction float64, seed uint64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: %v", ErrFraction, testFraction)
	}
	rng := rand.New(rand.NewSource(seed))
	pos, neg := byClass(labels, rng)
	for _, class := range [][]int{pos, neg} {
		k := int(math.Round(testFraction * float64(len(class))))
		test = append(test, class[:k]...)
		train = append(train, class[k:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// Assign deals each class round-robin into k folds after shuffling and
// returns the fold number of every row.
func Assign(labels []bool, k int, seed uint64) ([]int, error) {
	if k < 2 || k > len(labels) {
		return nil, fmt.Errorf("%w: %d folds for %d rows", ErrFolds, k, len(labels))
	}
	rng := rand.New(rand.NewSource(seed))
	pos, neg := byClass(labels, rng)
	out := make([]int, len(labels))
	// Negatives continue where positives stopped so fold sizes stay even.
	next := 0
	for _, class := range [][]int{pos, neg} {
		for _, i := range class {
			out[i] = next % k
			next++
		}
	}
	return out, nil
}

// StratifiedFolds partitions rows into k folds with class proportions
// preserved.
func StratifiedFolds(labels []bool, k int, seed uint64) ([]Fold, error) {
	assign, err := Assign(labels, k, seed)
	if err != nil {
		return nil, err
	}
	folds := make([]Fold, k)
	for i, f := range assign {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	return folds, nil
}
