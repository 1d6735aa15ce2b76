package vector

import (
	"github.com/viant/sqlite-kd/kdtree"
	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point component type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Float32s is a float32 embedding usable as a kdtree point.
type Float32s []float32

// Dims returns the number of components.
func (v Float32s) Dims() int { return len(v) }

// At returns the component at axis.
func (v Float32s) At(axis int) float64 { return float64(v[axis]) }

// Clone returns an independent copy.
func (v Float32s) Clone() Float32s { return append(Float32s(nil), v...) }

// Float64s is a float64 coordinate tuple usable as a kdtree point.
type Float64s []float64

// Dims returns the number of components.
func (v Float64s) Dims() int { return len(v) }

// At returns the component at axis.
func (v Float64s) At(axis int) float64 { return v[axis] }

// Clone returns an independent copy.
func (v Float64s) Clone() Float64s { return append(Float64s(nil), v...) }

// Vector is a point over any numeric component type, e.g. Vector[int] for
// integer grids.
type Vector[T Number] []T

// Dims returns the number of components.
func (v Vector[T]) Dims() int { return len(v) }

// At returns the component at axis.
func (v Vector[T]) At(axis int) float64 { return float64(v[axis]) }

// Clone returns an independent copy.
func (v Vector[T]) Clone() Vector[T] { return append(Vector[T](nil), v...) }

var (
	_ kdtree.Point               = Float32s(nil)
	_ kdtree.Cloner[Float32s]    = Float32s(nil)
	_ kdtree.Point               = Float64s(nil)
	_ kdtree.Cloner[Float64s]    = Float64s(nil)
	_ kdtree.Point               = Vector[int](nil)
	_ kdtree.Cloner[Vector[int]] = Vector[int](nil)
)
