package bruteforce

import (
	"fmt"
	"math"
	"sort"

	"github.com/viant/sqlite-kd/kdtree"
	"github.com/viant/sqlite-kd/vector"
)

// Index is a linear-scan vector index. The zero value uses squared
// Euclidean distance.
type Index struct {
	distance kdtree.DistanceFunction
	metric   kdtree.Metric[vector.Float32s]
	ids      []string
	vecs     []vector.Float32s
	dim      int
}

// New returns an empty index measuring with distance (squared Euclidean when empty).
func New(distance kdtree.DistanceFunction) *Index {
	return &Index{distance: distance}
}

// Build loads ids and vectors.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	distance := i.distance
	if distance == "" {
		distance = kdtree.DistanceFunctionSquaredEuclidean
	}
	metric, err := vector.Float32Metric(distance)
	if err != nil {
		return err
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("bruteforce: empty vector for id %q: %w", ids[0], kdtree.ErrInvalidParameter)
		}
	}
	vecs := make([]vector.Float32s, len(vectors))
	for j, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d: %w", len(v), dim, kdtree.ErrDimensionMismatch)
		}
		vecs[j] = vector.Float32s(v).Clone()
	}
	i.distance = distance
	i.metric = metric
	i.ids = append([]string(nil), ids...)
	i.vecs = vecs
	i.dim = dim
	return nil
}

// Query returns the k nearest ids ascending by distance.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	return i.scan(query, k, 0, false)
}

// QueryWithin returns the k nearest ids within radius ascending by distance.
func (i *Index) QueryWithin(query []float32, radius float64, k int) ([]string, []float64, error) {
	if !(radius > 0) {
		return nil, nil, fmt.Errorf("bruteforce: radius must be positive, got %v: %w", radius, kdtree.ErrInvalidParameter)
	}
	if len(i.vecs) == 0 {
		return i.scan(query, k, 0, true)
	}
	return i.scan(query, k, i.metric.Radius(radius), true)
}

// Len returns the number of vectors.
func (i *Index) Len() int { return len(i.vecs) }

// Dims returns the vector dimensionality.
func (i *Index) Dims() int { return i.dim }

func (i *Index) scan(query []float32, k int, bound float64, bounded bool) ([]string, []float64, error) {
	if k < 0 {
		return nil, nil, fmt.Errorf("bruteforce: k must not be negative, got %d: %w", k, kdtree.ErrInvalidParameter)
	}
	if len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d: %w", len(query), i.dim, kdtree.ErrDimensionMismatch)
	}
	for axis, v := range query {
		if math.IsNaN(float64(v)) {
			return nil, nil, fmt.Errorf("bruteforce: query has NaN at axis %d: %w", axis, kdtree.ErrInvalidParameter)
		}
	}
	if k == 0 {
		return nil, nil, nil
	}
	type scored struct {
		idx      int
		distance float64
	}
	scoreds := make([]scored, 0, len(i.vecs))
	for j, v := range i.vecs {
		d := i.metric.Distance(query, v)
		if bounded && d > bound {
			continue
		}
		scoreds = append(scoreds, scored{idx: j, distance: d})
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].distance < scoreds[b].distance })
	if k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]string, k)
	outDistances := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outDistances[n] = scoreds[n].distance
	}
	return outIDs, outDistances, nil
}
