package model

import (
	"fmt"
	"math"
)

// Objective selects how tree outputs are combined into a churn probability.
type Objective string

const (
	// ObjectiveLogistic sums leaf margins plus BaseScore and applies the sigmoid
	// (gradient boosted trees).
	ObjectiveLogistic Objective = "binary:logistic"
	// ObjectiveMeanProbability averages per-tree class-1 probabilities (a forest).
	ObjectiveMeanProbability Objective = "mean_probability"
)

// Node is one tree node. A node whose Left and Right are both 0 is a leaf;
// the root is node 0 so it can never be a child.
type Node struct {
	Feature   int     `yaml:"feature" json:"feature"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Left      int     `yaml:"left" json:"left"`
	Right     int     `yaml:"right" json:"right"`
	Value     float64 `yaml:"value" json:"value"`
	Cover     float64 `yaml:"cover" json:"cover"`
}

func (n *Node) isLeaf() bool { return n.Left == 0 && n.Right == 0 }

// Tree is a binary decision tree; x[Feature] < Threshold goes left.
type Tree struct {
	Nodes []Node `yaml:"nodes" json:"nodes"`
}

func (t *Tree) leaf(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.isLeaf() {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Ensemble is a fitted binary classifier made of decision trees.
// It is immutable after Load and safe for concurrent use.
type Ensemble struct {
	Objective Objective `yaml:"objective" json:"objective"`
	BaseScore float64   `yaml:"base_score" json:"base_score"`
	Trees     []Tree    `yaml:"trees" json:"trees"`

	width int
}

// Width is the number of input columns the ensemble expects.
func (e *Ensemble) Width() int { return e.width }

// Raw returns the untransformed model output: the margin for logistic
// ensembles, the class-1 probability for forests.
func (e *Ensemble) Raw(x []float64) (float64, error) {
	if err := e.checkRow(x); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range e.Trees {
		sum += e.Trees[i].leaf(x)
	}
	return e.combine(sum), nil
}

// PredictProba returns the probability of the churn class for one row.
func (e *Ensemble) PredictProba(x []float64) (float64, error) {
	raw, err := e.Raw(x)
	if err != nil {
		return 0, err
	}
	return e.link(raw), nil
}

// Predict returns the hard label: 1 (churn) when the churn probability exceeds 0.5.
func (e *Ensemble) Predict(x []float64) (int, error) {
	p, err := e.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (e *Ensemble) combine(treeSum float64) float64 {
	if e.Objective == ObjectiveMeanProbability {
		return treeSum / float64(len(e.Trees))
	}
	return e.BaseScore + treeSum
}

func (e *Ensemble) link(raw float64) float64 {
	if e.Objective == ObjectiveMeanProbability {
		return math.Min(1, math.Max(0, raw))
	}
	return 1 / (1 + math.Exp(-raw))
}

func (e *Ensemble) checkRow(x []float64) error {
	if len(x) != e.width {
		return fmt.Errorf("model: got %d features, want %d", len(x), e.width)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("model: feature %d is not finite", i)
		}
	}
	return nil
}

// validate checks tree structure against a model input width.
func (e *Ensemble) validate(width int) error {
	switch e.Objective {
	case ObjectiveLogistic, ObjectiveMeanProbability:
	case "":
		e.Objective = ObjectiveLogistic
	default:
		return fmt.Errorf("model: unknown objective %q", e.Objective)
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("model: at least one tree is required")
	}
	for ti := range e.Trees {
		nodes := e.Trees[ti].Nodes
		if len(nodes) == 0 {
			return fmt.Errorf("model: tree %d has no nodes", ti)
		}
		for ni := range nodes {
			n := &nodes[ni]
			if n.isLeaf() {
				continue
			}
			// Children must come after their parent, which rules out cycles.
			if n.Left <= ni || n.Right <= ni || n.Left >= len(nodes) || n.Right >= len(nodes) {
				return fmt.Errorf("model: tree %d node %d has invalid children (%d, %d)", ti, ni, n.Left, n.Right)
			}
			if n.Feature < 0 || n.Feature >= width {
				return fmt.Errorf("model: tree %d node %d splits on feature %d, model has %d", ti, ni, n.Feature, width)
			}
		}
	}
	e.width = width
	return nil
}

// remap rewrites split features from artifact column order into encoder order.
func (e *Ensemble) remap(perm []int) {
	for ti := range e.Trees {
		for ni := range e.Trees[ti].Nodes {
			n := &e.Trees[ti].Nodes[ni]
			if !n.isLeaf() {
				n.Feature = perm[n.Feature]
			}
		}
	}
}
