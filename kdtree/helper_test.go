package kdtree

import (
	"math/rand"
	"sort"
)

// pt is a minimal slice-backed point used by the package tests.
type pt []float64

func (p pt) Dims() int           { return len(p) }
func (p pt) At(axis int) float64 { return p[axis] }
func (p pt) Clone() pt           { return append(pt(nil), p...) }

func randomPoints(rng *rand.Rand, n, dims int, scale float64) []pt {
	out := make([]pt, n)
	for i := range out {
		p := make(pt, dims)
		for j := range p {
			p[j] = (rng.Float64()*2 - 1) * scale
		}
		out[i] = p
	}
	return out
}

// gridPoints returns integer points in [0, side) with plenty of equal coordinates.
func gridPoints(rng *rand.Rand, n, dims, side int) []pt {
	out := make([]pt, n)
	for i := range out {
		p := make(pt, dims)
		for j := range p {
			p[j] = float64(rng.Intn(side))
		}
		out[i] = p
	}
	return out
}

// bruteForce returns the distances of the k closest points within bound.
func bruteForce(points []pt, q pt, m Metric[pt], k int, bound float64, bounded bool) []float64 {
	dists := []float64{}
	for _, p := range points {
		d := m.Distance(q, p)
		if bounded && d > bound {
			continue
		}
		dists = append(dists, d)
	}
	sort.Float64s(dists)
	if len(dists) > k {
		dists = dists[:k]
	}
	return dists
}

func distancesOf(matches []Match[pt]) []float64 {
	out := make([]float64, len(matches))
	for i, m := range matches {
		out[i] = m.Distance
	}
	return out
}
