package kdtree

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"
	"sort"
)

// Tree is an immutable k-d tree. The zero value is not usable; build trees
// with New or NewFromSeq.
type Tree[P Point] struct {
	root   *node[P]
	metric Metric[P]
	dims   int
	size   int
}

// New builds a tree over points. The points are copied (cloned when P
// implements Cloner), so the caller may reuse the slice afterwards.
//
// All points must share one dimensionality of at least 1; otherwise New
// fails with ErrDimensionMismatch or ErrInvalidParameter and returns no
// tree. An empty point set yields a tree that answers every query with an
// empty result.
//
// Points sharing a coordinate always go left of a split on that axis, so a
// set dominated by duplicates degenerates into a chain: n identical points
// give a tree of height n, and construction is quadratic in that case.
func New[P Point](points []P, metric Metric[P], opts ...Option) (*Tree[P], error) {
	if metric == nil {
		return nil, fmt.Errorf("%w: nil metric", ErrInvalidParameter)
	}
	o := newOptions(opts)
	t := &Tree[P]{metric: metric, size: len(points)}
	if len(points) == 0 {
		o.logger.Debug("kdtree built", "points", 0)
		return t, nil
	}
	dims, err := validatePoints(points)
	if err != nil {
		return nil, err
	}
	work := make([]P, len(points))
	for i, p := range points {
		work[i] = clonePoint(p)
	}
	t.dims = dims
	t.root = build(work, 0, dims)
	o.logger.Debug("kdtree built", "points", t.size, "dims", dims, "height", t.root.height())
	return t, nil
}

// NewFromSeq builds a tree from a finite sequence of points.
func NewFromSeq[P Point](seq iter.Seq[P], metric Metric[P], opts ...Option) (*Tree[P], error) {
	var points []P
	if seq != nil {
		points = slices.Collect(seq)
	}
	return New(points, metric, opts...)
}

func validatePoints[P Point](points []P) (int, error) {
	dims := points[0].Dims()
	if dims < 1 {
		return 0, fmt.Errorf("%w: point 0 has %d dimensions", ErrInvalidParameter, dims)
	}
	for i, p := range points {
		if d := p.Dims(); d != dims {
			return 0, fmt.Errorf("%w: point %d has %d dimensions, want %d", ErrDimensionMismatch, i, d, dims)
		}
		for axis := 0; axis < dims; axis++ {
			if math.IsNaN(p.At(axis)) {
				return 0, fmt.Errorf("%w: point %d has NaN at axis %d", ErrInvalidParameter, i, axis)
			}
		}
	}
	return dims, nil
}

// build splits points around the median of the current axis. points is a
// working copy owned by the tree and is reordered in place.
func build[P Point](points []P, depth, dims int) *node[P] {
	if len(points) == 0 {
		return nil
	}
	axis := depth % dims
	byAxis := func(a, b P) int {
		return cmp.Compare(a.At(axis), b.At(axis))
	}
	if !slices.IsSortedFunc(points, byAxis) {
		slices.SortFunc(points, byAxis)
	}
	mid := len(points) / 2
	// equal keys stay left of the split so that the right subtree is strictly greater
	key := points[mid].At(axis)
	rest := points[mid+1:]
	median := mid + sort.Search(len(rest), func(i int) bool {
		return rest[i].At(axis) > key
	})
	return &node[P]{
		point: points[median],
		left:  build(points[:median], depth+1, dims),
		right: build(points[median+1:], depth+1, dims),
	}
}

// Len returns the number of stored points.
func (t *Tree[P]) Len() int { return t.size }

// Dims returns the dimensionality of the stored points, or 0 for an empty tree.
func (t *Tree[P]) Dims() int { return t.dims }

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[P]) Height() int { return t.root.height() }

// Metric returns the metric bound at construction.
func (t *Tree[P]) Metric() Metric[P] { return t.metric }

// Points returns copies of the stored points in depth-first (node, left,
// right) order.
func (t *Tree[P]) Points() []P {
	out := make([]P, 0, t.size)
	var walk func(n *node[P])
	walk = func(n *node[P]) {
		if n == nil {
			return
		}
		out = append(out, clonePoint(n.point))
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
	return out
}
