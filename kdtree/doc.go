// Package kdtree implements an immutable k-d tree over points of any fixed
// dimensionality. A tree is built once from a point set by recursive median
// splits on a rotating axis and answers exact k-nearest-neighbour and
// radius-bounded k-nearest-neighbour queries.
//
// Points are supplied through the Point contract and distances through an
// injected Metric, so the same tree serves float32 embeddings, float64
// coordinates, integer grids, or any caller-defined type.
//
// A built tree is read-only; concurrent queries need no coordination.
package kdtree
