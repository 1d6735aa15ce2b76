package kdtree

import (
	"fmt"
	"math"
)

// query carries the per-call search parameters; the frontier it builds is
// local to the call, so concurrent queries never share state.
type query[P Point] struct {
	point   P
	k       int
	bound   float64
	bounded bool
}

func (q *query[P]) accepts(distance float64) bool {
	return !q.bounded || distance <= q.bound
}

// NearestTo returns up to k stored points nearest to p, ascending by
// distance. k = 0 and an empty tree yield an empty result. Points at equal
// distance are returned in an unspecified order.
func (t *Tree[P]) NearestTo(p P, k int) ([]P, error) {
	matches, err := t.NearestMatches(p, k)
	if err != nil {
		return nil, err
	}
	return pointsOf(matches), nil
}

// NearestWithin returns up to k stored points nearest to p whose distance
// to p does not exceed the radius r. r is given in coordinate units and is
// converted by the tree's metric; it must be strictly positive.
func (t *Tree[P]) NearestWithin(p P, r float64, k int) ([]P, error) {
	matches, err := t.NearestMatchesWithin(p, r, k)
	if err != nil {
		return nil, err
	}
	return pointsOf(matches), nil
}

// NearestMatches is NearestTo returning each point with its distance.
func (t *Tree[P]) NearestMatches(p P, k int) ([]Match[P], error) {
	if err := t.checkQuery(p, k); err != nil {
		return nil, err
	}
	return t.search(&query[P]{point: p, k: k}), nil
}

// NearestMatchesWithin is NearestWithin returning each point with its distance.
func (t *Tree[P]) NearestMatchesWithin(p P, r float64, k int) ([]Match[P], error) {
	if !(r > 0) {
		return nil, fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidParameter, r)
	}
	if err := t.checkQuery(p, k); err != nil {
		return nil, err
	}
	return t.search(&query[P]{point: p, k: k, bound: t.metric.Radius(r), bounded: true}), nil
}

func (t *Tree[P]) checkQuery(p P, k int) error {
	if k < 0 {
		return fmt.Errorf("%w: k must not be negative, got %d", ErrInvalidParameter, k)
	}
	if t.root == nil {
		return nil
	}
	if d := p.Dims(); d != t.dims {
		return fmt.Errorf("%w: query has %d dimensions, tree has %d", ErrDimensionMismatch, d, t.dims)
	}
	for axis := 0; axis < t.dims; axis++ {
		if math.IsNaN(p.At(axis)) {
			return fmt.Errorf("%w: query has NaN at axis %d", ErrInvalidParameter, axis)
		}
	}
	return nil
}

func (t *Tree[P]) search(q *query[P]) []Match[P] {
	if q.k == 0 || t.root == nil {
		return []Match[P]{}
	}
	found := t.nearest(t.root, q, 0)
	out := make([]Match[P], len(found))
	for i, m := range found {
		out[i] = Match[P]{Point: clonePoint(m.Point), Distance: m.Distance}
	}
	return out
}

// nearest returns the frontier of the subtree rooted at n, at most q.k
// entries ascending by distance.
func (t *Tree[P]) nearest(n *node[P], q *query[P], depth int) frontier[P] {
	current := Match[P]{Point: n.point, Distance: t.metric.Distance(q.point, n.point)}
	if n.isLeaf() {
		if !q.accepts(current.Distance) {
			return nil
		}
		return frontier[P]{current}
	}

	axis := depth % t.dims
	offset := q.point.At(axis) - n.point.At(axis)
	preferred, other := n.left, n.right
	if offset > 0 {
		preferred, other = n.right, n.left
	}

	var best frontier[P]
	if preferred != nil {
		best = t.nearest(preferred, q, depth+1)
	}
	if other != nil && t.explore(best, q, t.metric.AxisDistance(math.Abs(offset))) {
		best = best.merge(t.nearest(other, q, depth+1), q.k)
	}
	if q.accepts(current.Distance) {
		best = best.insert(current, q.k)
	}
	return best
}

// explore reports whether the far side of a splitting plane, planeDistance
// away from the query, may still hold a point that belongs in the result.
func (t *Tree[P]) explore(best frontier[P], q *query[P], planeDistance float64) bool {
	if q.bounded && planeDistance > q.bound {
		return false
	}
	if len(best) < q.k {
		return true
	}
	return planeDistance < best.worst()
}

func pointsOf[P Point](matches []Match[P]) []P {
	out := make([]P, len(matches))
	for i, m := range matches {
		out[i] = m.Point
	}
	return out
}
