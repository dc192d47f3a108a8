package boost

// Node is a tree node. Leaves carry Value; internal nodes send rows with
// x[Feature] <= Threshold to Left.
type Node struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is a flat binary tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value reached by x.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth is the longest root to leaf path in edges.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := &t.Nodes[i]
		if n.Leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}
