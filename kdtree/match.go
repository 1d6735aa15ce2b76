package kdtree

import "sort"

// Match pairs a stored point with its distance to a query.
type Match[P Point] struct {
	Point    P
	Distance float64
}

// frontier is the bounded best-so-far list of a search, ascending by distance.
type frontier[P Point] []Match[P]

func (f frontier[P]) worst() float64 { return f[len(f)-1].Distance }

// merge combines two ascending frontiers and keeps the k closest entries.
// On equal distances entries of f precede entries of other.
func (f frontier[P]) merge(other frontier[P], k int) frontier[P] {
	if len(other) == 0 {
		return f
	}
	if len(f) == 0 {
		return other.truncate(k)
	}
	out := make(frontier[P], 0, min(k, len(f)+len(other)))
	i, j := 0, 0
	for len(out) < k && (i < len(f) || j < len(other)) {
		if j == len(other) || (i < len(f) && f[i].Distance <= other[j].Distance) {
			out = append(out, f[i])
			i++
			continue
		}
		out = append(out, other[j])
		j++
	}
	return out
}

// insert places m at its sorted position, after any entry at the same
// distance, and drops it when the frontier is full of closer entries.
func (f frontier[P]) insert(m Match[P], k int) frontier[P] {
	at := sort.Search(len(f), func(i int) bool { return f[i].Distance > m.Distance })
	if at == len(f) {
		if len(f) < k {
			f = append(f, m)
		}
		return f
	}
	f = append(f, Match[P]{})
	copy(f[at+1:], f[at:])
	f[at] = m
	return f.truncate(k)
}

func (f frontier[P]) truncate(k int) frontier[P] {
	if len(f) > k {
		return f[:k]
	}
	return f
}
