package kdtree

import (
	"fmt"
	"math"
)

// CheckInvariants walks the whole tree and verifies its representation:
// every point has the tree's dimensionality, and for a node at depth d with
// axis a = d mod D every point of its left subtree has p[a] <= node[a] and
// every point of its right subtree has p[a] > node[a]. It also verifies that
// the node count matches Len and that the left child is present whenever
// the node has any child.
//
// The walk is O(n·D); it is meant for tests and diagnostics.
func (t *Tree[P]) CheckInvariants() error {
	if t.root == nil {
		if t.size != 0 {
			return fmt.Errorf("kdtree: empty tree reports %d points", t.size)
		}
		return nil
	}
	c := &checker[P]{dims: t.dims}
	lower := make([]float64, t.dims) // exclusive
	upper := make([]float64, t.dims) // inclusive
	for i := range lower {
		lower[i] = math.Inf(-1)
		upper[i] = math.Inf(1)
	}
	if err := c.walk(t.root, 0, lower, upper); err != nil {
		return err
	}
	if c.count != t.size {
		return fmt.Errorf("kdtree: tree holds %d nodes, Len reports %d", c.count, t.size)
	}
	return nil
}

type checker[P Point] struct {
	dims  int
	count int
}

func (c *checker[P]) walk(n *node[P], depth int, lower, upper []float64) error {
	c.count++
	if d := n.point.Dims(); d != c.dims {
		return fmt.Errorf("%w: node at depth %d has %d dimensions, want %d", ErrDimensionMismatch, depth, d, c.dims)
	}
	for axis := 0; axis < c.dims; axis++ {
		v := n.point.At(axis)
		if (v <= lower[axis] && !math.IsInf(lower[axis], -1)) || v > upper[axis] {
			return fmt.Errorf("kdtree: node at depth %d has %v at axis %d outside (%v, %v]", depth, v, axis, lower[axis], upper[axis])
		}
	}
	if n.left == nil && n.right != nil {
		return fmt.Errorf("kdtree: node at depth %d has a right child but no left child", depth)
	}
	axis := depth % c.dims
	split := n.point.At(axis)
	if n.left != nil {
		bound := clampUpper(upper, axis, split)
		if err := c.walk(n.left, depth+1, lower, bound); err != nil {
			return err
		}
	}
	if n.right != nil {
		bound := clampLower(lower, axis, split)
		if err := c.walk(n.right, depth+1, bound, upper); err != nil {
			return err
		}
	}
	return nil
}

func clampUpper(upper []float64, axis int, v float64) []float64 {
	out := append([]float64(nil), upper...)
	if v < out[axis] {
		out[axis] = v
	}
	return out
}

func clampLower(lower []float64, axis int, v float64) []float64 {
	out := append([]float64(nil), lower...)
	if v > out[axis] {
		out[axis] = v
	}
	return out
}
