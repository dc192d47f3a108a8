package boost

import (
	"math"

	"golang.org/x/exp/rand"
)

type grower struct {
	data    *binned
	params  Params
	grad    []float64
	hess    []float64
	rng     *rand.Rand
	gain    []float64
	feature []int
}

// sampleRows draws a Subsample share of rows without replacement.
func (g *grower) sampleRows(n int) []int {
	if g.params.Subsample >= 1 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	k := int(math.Ceil(g.params.Subsample * float64(n)))
	perm := g.rng.Perm(n)
	return perm[:k]
}

// sampleColumns draws a ColSample share of features, at least one.
func (g *grower) sampleColumns() []int {
	p := len(g.feature)
	k := int(math.Ceil(g.params.ColSample * float64(p)))
	if k >= p {
		return g.feature
	}
	if k < 1 {
		k = 1
	}
	perm := g.rng.Perm(p)
	return perm[:k]
}

type split struct {
	feature int
	bin     int
	gain    float64
}

func (g *grower) leafValue(gs, hs float64) float64 {
	return -gs / (hs + g.params.Lambda) * g.params.LearningRate
}

func (g *grower) grow(rows, cols []int) Tree {
	t := Tree{}
	g.node(&t, rows, cols, 0)
	return t
}

// node appends the subtree for rows to t and returns its index.
func (g *grower) node(t *Tree, rows, cols []int, depth int) int {
	var gs, hs float64
	for _, i := range rows {
		gs += g.grad[i]
		hs += g.hess[i]
	}
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Leaf: true, Value: g.leafValue(gs, hs)})

	if depth >= g.params.MaxDepth || len(rows) < 2*g.params.MinLeaf {
		return idx
	}
	best, ok := g.bestSplit(rows, cols, gs, hs)
	if !ok {
		return idx
	}

	bins := g.data.bins[best.feature]
	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, i := range rows {
		if int(bins[i]) <= best.bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	g.gain[best.feature] += best.gain

	l := g.node(t, left, cols, depth+1)
	r := g.node(t, right, cols, depth+1)
	t.Nodes[idx] = Node{
		Feature:   best.feature,
		Threshold: g.data.cuts[best.feature][best.bin],
		Left:      l,
		Right:     r,
	}
	return idx
}

// bestSplit scans the histogram of every candidate feature for the split
// with the largest positive gain that leaves MinLeaf rows on both sides.
func (g *grower) bestSplit(rows, cols []int, gs, hs float64) (split, bool) {
	lambda := g.params.Lambda
	parent := gs * gs / (hs + lambda)
	best := split{gain: 0}
	found := false

	for _, f := range cols {
		cuts := g.data.cuts[f]
		if len(cuts) == 0 {
			continue
		}
		nb := len(cuts) + 1
		hg := make([]float64, nb)
		hh := make([]float64, nb)
		hc := make([]int, nb)
		bins := g.data.bins[f]
		for _, i := range rows {
			b := bins[i]
			hg[b] += g.grad[i]
			hh[b] += g.hess[i]
			hc[b]++
		}

		var gl, hl float64
		cl := 0
		for b := 0; b < len(cuts); b++ {
			gl += hg[b]
			hl += hh[b]
			cl += hc[b]
			cr := len(rows) - cl
			if cl < g.params.MinLeaf {
				continue
			}
			if cr < g.params.MinLeaf {
				break
			}
			gr, hr := gs-gl, hs-hl
			gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent
			if gain > best.gain {
				best = split{feature: f, bin: b, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
