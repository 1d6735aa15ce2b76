package kdtree

import "errors"

var (
	// ErrDimensionMismatch reports points whose dimensionality differs from the tree's.
	ErrDimensionMismatch = errors.New("kdtree: dimension mismatch")
	// ErrInvalidParameter reports a non-positive radius, a negative count, or an unusable point.
	ErrInvalidParameter = errors.New("kdtree: invalid parameter")
)
