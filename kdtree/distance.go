package kdtree

import (
	"fmt"
	"math"
	"strings"
)

// DistanceFunction enumerates the stock metrics supported by the tree.
type DistanceFunction string

const (
	DistanceFunctionSquaredEuclidean DistanceFunction = "l2sq"
	DistanceFunctionEuclidean        DistanceFunction = "l2"
	DistanceFunctionManhattan        DistanceFunction = "l1"
	DistanceFunctionChebyshev        DistanceFunction = "linf"
)

// ParseDistanceFunction resolves a metric name; common aliases are accepted.
func ParseDistanceFunction(name string) (DistanceFunction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "l2sq", "sql2", "squared_euclidean":
		return DistanceFunctionSquaredEuclidean, nil
	case "l2", "euclidean":
		return DistanceFunctionEuclidean, nil
	case "l1", "manhattan", "taxicab":
		return DistanceFunctionManhattan, nil
	case "linf", "chebyshev", "max":
		return DistanceFunctionChebyshev, nil
	}
	return "", fmt.Errorf("%w: unknown distance function %q", ErrInvalidParameter, name)
}

// Metric measures distances between points of type P.
//
// AxisDistance must never exceed Distance(a, b) for two points whose
// coordinates differ by delta on some axis; the search relies on it to prune
// subtrees on the far side of a splitting plane.
type Metric[P Point] interface {
	// Distance returns a non-negative distance between a and b.
	Distance(a, b P) float64
	// AxisDistance returns the distance implied by an offset delta along one axis.
	AxisDistance(delta float64) float64
	// Radius converts a radius in coordinate units into distance units.
	Radius(r float64) float64
}

type metric[P Point] struct {
	kind     DistanceFunction
	distance func(a, b P) float64
}

func (m metric[P]) Distance(a, b P) float64 { return m.distance(a, b) }

func (m metric[P]) AxisDistance(delta float64) float64 {
	delta = math.Abs(delta)
	if m.kind == DistanceFunctionSquaredEuclidean {
		return delta * delta
	}
	return delta
}

func (m metric[P]) Radius(r float64) float64 {
	if m.kind == DistanceFunctionSquaredEuclidean {
		return r * r
	}
	return r
}

// String returns the metric name.
func (m metric[P]) String() string { return string(m.kind) }

// NewMetric adapts a custom distance function to a Metric that scales axis
// offsets and radii like the given stock kind. fn must agree with kind, e.g. a
// squared Euclidean implementation for DistanceFunctionSquaredEuclidean.
func NewMetric[P Point](kind DistanceFunction, fn func(a, b P) float64) (Metric[P], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil distance function", ErrInvalidParameter)
	}
	switch kind {
	case DistanceFunctionSquaredEuclidean, DistanceFunctionEuclidean, DistanceFunctionManhattan, DistanceFunctionChebyshev:
	default:
		return nil, fmt.Errorf("%w: unknown distance function %q", ErrInvalidParameter, kind)
	}
	return metric[P]{kind: kind, distance: fn}, nil
}

// MetricOf returns the stock metric of kind computed component-wise through At.
func MetricOf[P Point](kind DistanceFunction) (Metric[P], error) {
	switch kind {
	case DistanceFunctionSquaredEuclidean:
		return NewMetric(kind, SquaredEuclideanDistance[P])
	case DistanceFunctionEuclidean:
		return NewMetric(kind, EuclideanDistance[P])
	case DistanceFunctionManhattan:
		return NewMetric(kind, ManhattanDistance[P])
	case DistanceFunctionChebyshev:
		return NewMetric(kind, ChebyshevDistance[P])
	}
	return nil, fmt.Errorf("%w: unknown distance function %q", ErrInvalidParameter, kind)
}

// SquaredEuclidean returns the default metric: squared L2 distance.
func SquaredEuclidean[P Point]() Metric[P] {
	return metric[P]{kind: DistanceFunctionSquaredEuclidean, distance: SquaredEuclideanDistance[P]}
}

// SquaredEuclideanDistance returns the squared L2 distance between a and b.
// Both points must have the same dimensionality.
func SquaredEuclideanDistance[P Point](a, b P) float64 {
	var sum float64
	for i := 0; i < a.Dims(); i++ {
		d := a.At(i) - b.At(i)
		sum += d * d
	}
	return sum
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance[P Point](a, b P) float64 {
	return math.Sqrt(SquaredEuclideanDistance(a, b))
}

// ManhattanDistance returns the L1 distance between a and b.
func ManhattanDistance[P Point](a, b P) float64 {
	var sum float64
	for i := 0; i < a.Dims(); i++ {
		sum += math.Abs(a.At(i) - b.At(i))
	}
	return sum
}

// ChebyshevDistance returns the L-infinity distance between a and b.
func ChebyshevDistance[P Point](a, b P) float64 {
	var m float64
	for i := 0; i < a.Dims(); i++ {
		if d := math.Abs(a.At(i) - b.At(i)); d > m {
			m = d
		}
	}
	return m
}
