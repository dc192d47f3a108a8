// Package encode turns training rows into design matrices.
//
// Encoding is two-phase: Fit learns the category levels of a recipe on
// training rows only, and the frozen Encoder then applies to any rows.
// Row metadata never reaches the matrix.
package encode

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/okian/xg/internal/domain/model"
)

// Encoder is a fitted recipe. It is safe for concurrent use.
type Encoder struct {
	Recipe Recipe `json:"recipe"`
	// Levels holds the kept levels per categorical predictor, sorted.
	Levels  map[string][]string `json:"levels"`
	Columns []string            `json:"columns"`

	index map[string]map[string]int
}

// Fit learns levels for r from rows. Levels whose share of rows is below
// the recipe's rare threshold fold into OtherLevel.
func Fit(r Recipe, rows []model.TrainingRow) (*Encoder, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	e := &Encoder{Recipe: r, Levels: make(map[string][]string)}
	for _, name := range r.Predictors {
		p := predictors[name]
		if !p.categorical {
			continue
		}
		counts := make(map[string]int)
		for i := range rows {
			counts[p.cat(&rows[i].Features)]++
		}
		kept := make([]string, 0, len(counts))
		for lvl, n := range counts {
			if lvl == OtherLevel {
				continue
			}
			if float64(n)/float64(len(rows)) >= r.RareThreshold {
				kept = append(kept, lvl)
			}
		}
		sort.Strings(kept)
		e.Levels[name] = kept
	}
	e.build()
	return e, nil
}

// build derives Columns and the level index from Recipe and Levels.
func (e *Encoder) build() {
	e.Columns = e.Columns[:0]
	e.index = make(map[string]map[string]int)
	for _, name := range e.Recipe.Predictors {
		if !predictors[name].categorical {
			e.Columns = append(e.Columns, name)
			continue
		}
		idx := make(map[string]int)
		for _, lvl := range e.Levels[name] {
			idx[lvl] = len(e.Columns)
			e.Columns = append(e.Columns, name+"="+lvl)
		}
		idx[OtherLevel] = len(e.Columns)
		e.Columns = append(e.Columns, name+"="+OtherLevel)
		e.index[name] = idx
	}
	for _, pair := range e.Recipe.Interactions {
		e.Columns = append(e.Columns, pair[0]+":"+pair[1])
	}
}

// Restore rebuilds lookup state after the Encoder was decoded from JSON.
func (e *Encoder) Restore() error {
	if err := e.Recipe.Validate(); err != nil {
		return err
	}
	want := len(e.Columns)
	e.Columns = nil
	e.build()
	if want != 0 && want != len(e.Columns) {
		return fmt.Errorf("encoder columns: have %d, recipe yields %d", want, len(e.Columns))
	}
	return nil
}

// Width is the number of encoded columns.
func (e *Encoder) Width() int { return len(e.Columns) }

// Encode writes the encoded form of f into dst, which must have Width
// elements.
func (e *Encoder) Encode(f *model.Features, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	col := 0
	for _, name := range e.Recipe.Predictors {
		p := predictors[name]
		if !p.categorical {
			dst[col] = p.num(f)
			col++
			continue
		}
		idx := e.index[name]
		j, ok := idx[p.cat(f)]
		if !ok {
			j = idx[OtherLevel]
		}
		dst[j] = 1
		col += len(idx)
	}
	for _, pair := range e.Recipe.Interactions {
		dst[col] = predictors[pair[0]].num(f) * predictors[pair[1]].num(f)
		col++
	}
}

// Vector encodes a single feature row.
func (e *Encoder) Vector(f model.Features) []float64 {
	out := make([]float64, e.Width())
	e.Encode(&f, out)
	return out
}

// Transform encodes rows into an n x Width matrix.
func (e *Encoder) Transform(rows []model.TrainingRow) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	x := mat.NewDense(len(rows), e.Width(), nil)
	for i := range rows {
		e.Encode(&rows[i].Features, x.RawRowView(i))
	}
	return x, nil
}
