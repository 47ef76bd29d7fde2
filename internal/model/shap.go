package model

import (
	"fmt"
	"math/bits"
)

// maxExactFeatures bounds the subset enumeration (2^n model evaluations).
const maxExactFeatures = 16

// Contributions returns the per-feature Shapley values of the raw model
// output for one row, and the expected (base) value. Conditional
// expectations follow the trees' training cover, so the values match
// path-dependent TreeSHAP. base + sum(phi) equals Raw(x).
func (e *Ensemble) Contributions(x []float64) (phi []float64, base float64, err error) {
	if err := e.checkRow(x); err != nil {
		return nil, 0, err
	}
	m := e.width
	if m > maxExactFeatures {
		return nil, 0, fmt.Errorf("model: exact attribution supports at most %d features, got %d", maxExactFeatures, m)
	}

	subsets := 1 << m
	values := make([]float64, subsets)
	for mask := 0; mask < subsets; mask++ {
		sum := 0.0
		for i := range e.Trees {
			sum += e.Trees[i].expect(x, uint32(mask), 0)
		}
		values[mask] = e.combine(sum)
	}

	// weight[s] = s! (m-s-1)! / m!
	weight := make([]float64, m)
	for s := 0; s < m; s++ {
		weight[s] = 1 / (float64(m) * binomial(m-1, s))
	}

	phi = make([]float64, m)
	for i := 0; i < m; i++ {
		bit := 1 << i
		for mask := 0; mask < subsets; mask++ {
			if mask&bit != 0 {
				continue
			}
			s := bits.OnesCount32(uint32(mask))
			phi[i] += weight[s] * (values[mask|bit] - values[mask])
		}
	}
	return phi, values[0], nil
}

// expect is E[f(x) | x_S] for the subtree at node i, where S is the feature mask.
func (t *Tree) expect(x []float64, mask uint32, i int) float64 {
	n := &t.Nodes[i]
	if n.isLeaf() {
		return n.Value
	}
	if mask&(1<<uint(n.Feature)) != 0 {
		if x[n.Feature] < n.Threshold {
			return t.expect(x, mask, n.Left)
		}
		return t.expect(x, mask, n.Right)
	}
	lc, rc := t.Nodes[n.Left].Cover, t.Nodes[n.Right].Cover
	if lc+rc <= 0 {
		lc, rc = 1, 1
	}
	return (lc*t.expect(x, mask, n.Left) + rc*t.expect(x, mask, n.Right)) / (lc + rc)
}

func binomial(n, k int) float64 {
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}
