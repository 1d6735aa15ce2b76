package kd

import (
	"fmt"
	"log/slog"

	"github.com/viant/sqlite-kd/kdtree"
	"github.com/viant/sqlite-kd/vector"
)

// entry is a tree point carrying the position of its id.
type entry struct {
	pos int
	vec vector.Float32s
}

func (e entry) Dims() int           { return len(e.vec) }
func (e entry) At(axis int) float64 { return float64(e.vec[axis]) }
func (e entry) Clone() entry        { return entry{pos: e.pos, vec: e.vec.Clone()} }

// Index is a k-d tree vector index.
type Index struct {
	distance kdtree.DistanceFunction
	logger   *slog.Logger
	ids      []string
	tree     *kdtree.Tree[entry]
}

// New returns an empty index.
func New(opts ...Option) *Index {
	ret := &Index{
		distance: kdtree.DistanceFunctionSquaredEuclidean,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Distance returns the configured metric name.
func (i *Index) Distance() kdtree.DistanceFunction { return i.distance }

// Build constructs the tree from ids and vectors, replacing any previous one.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("kd: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	m, err := vector.Float32Metric(i.distance)
	if err != nil {
		return err
	}
	metric, err := kdtree.NewMetric(i.distance, func(a, b entry) float64 {
		return m.Distance(a.vec, b.vec)
	})
	if err != nil {
		return err
	}
	entries := make([]entry, len(vectors))
	for j, v := range vectors {
		// the tree clones entries, no copy needed here
		entries[j] = entry{pos: j, vec: v}
	}
	tree, err := kdtree.New(entries, metric, kdtree.WithLogger(i.logger))
	if err != nil {
		return fmt.Errorf("kd: build: %w", err)
	}
	i.ids = append([]string(nil), ids...)
	i.tree = tree
	return nil
}

// Query returns up to k ids nearest to query, ascending by distance.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.tree == nil {
		return i.empty(k)
	}
	matches, err := i.tree.NearestMatches(entry{pos: -1, vec: query}, k)
	if err != nil {
		return nil, nil, err
	}
	ids, distances := i.unpack(matches)
	return ids, distances, nil
}

// QueryWithin returns up to k ids within radius of query, ascending by
// distance. radius is in coordinate units for every metric.
func (i *Index) QueryWithin(query []float32, radius float64, k int) ([]string, []float64, error) {
	if i.tree == nil {
		if !(radius > 0) {
			return nil, nil, fmt.Errorf("kd: radius must be positive, got %v: %w", radius, kdtree.ErrInvalidParameter)
		}
		return i.empty(k)
	}
	matches, err := i.tree.NearestMatchesWithin(entry{pos: -1, vec: query}, radius, k)
	if err != nil {
		return nil, nil, err
	}
	ids, distances := i.unpack(matches)
	return ids, distances, nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	if i.tree == nil {
		return 0
	}
	return i.tree.Len()
}

// Dims returns the vector dimensionality.
func (i *Index) Dims() int {
	if i.tree == nil {
		return 0
	}
	return i.tree.Dims()
}

// Height returns the tree height.
func (i *Index) Height() int {
	if i.tree == nil {
		return 0
	}
	return i.tree.Height()
}

// Check validates the tree's structural invariants.
func (i *Index) Check() error {
	if i.tree == nil {
		return nil
	}
	return i.tree.CheckInvariants()
}

func (i *Index) empty(k int) ([]string, []float64, error) {
	if k < 0 {
		return nil, nil, fmt.Errorf("kd: k must not be negative, got %d: %w", k, kdtree.ErrInvalidParameter)
	}
	return nil, nil, nil
}

func (i *Index) unpack(matches []kdtree.Match[entry]) ([]string, []float64) {
	ids := make([]string, len(matches))
	distances := make([]float64, len(matches))
	for j, m := range matches {
		ids[j] = i.ids[m.Point.pos]
		distances[j] = m.Distance
	}
	return ids, distances
}
