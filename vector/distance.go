package vector

import (
	"fmt"
	"math"

	"github.com/viant/sqlite-kd/kdtree"
	"github.com/viant/vec/search"
	"gonum.org/v1/gonum/floats"
)

// Float32Metric returns the stock metric of kind over Float32s. Euclidean
// (l2) distances are computed by viant/vec in float32 precision and are
// therefore rounded to float32; l2sq, l1 and linf are accumulated in float64.
func Float32Metric(kind kdtree.DistanceFunction) (kdtree.Metric[Float32s], error) {
	switch kind {
	case kdtree.DistanceFunctionEuclidean:
		return kdtree.NewMetric(kind, func(a, b Float32s) float64 {
			return float64(search.Float32s(a).EuclideanDistance(search.Float32s(b)))
		})
	default:
		return kdtree.MetricOf[Float32s](kind)
	}
}

// Float64Metric returns the stock metric of kind over Float64s. L1, L2 and
// L-infinity distances are computed by gonum.
func Float64Metric(kind kdtree.DistanceFunction) (kdtree.Metric[Float64s], error) {
	var norm float64
	switch kind {
	case kdtree.DistanceFunctionEuclidean:
		norm = 2
	case kdtree.DistanceFunctionManhattan:
		norm = 1
	case kdtree.DistanceFunctionChebyshev:
		norm = math.Inf(1)
	default:
		return kdtree.MetricOf[Float64s](kind)
	}
	return kdtree.NewMetric(kind, func(a, b Float64s) float64 {
		return floats.Distance(a, b, norm)
	})
}

// Distance computes the kind distance between two embeddings. It returns an
// error if the vectors have different lengths or are empty.
func Distance(kind kdtree.DistanceFunction, a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: %s distance dimension mismatch: %d vs %d: %w", kind, len(a), len(b), kdtree.ErrDimensionMismatch)
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: %s distance on empty vectors", kind)
	}
	m, err := Float32Metric(kind)
	if err != nil {
		return 0, err
	}
	return m.Distance(a, b), nil
}
