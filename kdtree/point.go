package kdtree

// Point is a value with a fixed number of numeric components.
type Point interface {
	// Dims returns the dimensionality of the point.
	Dims() int
	// At returns the component at axis, 0 <= axis < Dims().
	At(axis int) float64
}

// Cloner is implemented by points that share memory with the caller (slices,
// pointers). The tree clones such points so that it owns its copies.
type Cloner[P any] interface {
	Clone() P
}

func clonePoint[P Point](p P) P {
	if c, ok := any(p).(Cloner[P]); ok {
		return c.Clone()
	}
	return p
}
