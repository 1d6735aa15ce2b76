package index

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/viant/sqlite-kd/index/bruteforce"
	"github.com/viant/sqlite-kd/index/kd"
	"github.com/viant/sqlite-kd/kdtree"
)

// Index defines an immutable vector index built from (id, embedding) pairs.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length and all vectors the same
	// dimensionality.
	Build(ids []string, vectors [][]float32) error

	// Query returns up to k ids nearest to query as parallel slices of ids
	// and distances, ascending by distance. k = 0 yields no matches.
	Query(query []float32, k int) (ids []string, distances []float64, err error)

	// QueryWithin is Query restricted to matches whose distance does not
	// exceed radius; radius must be positive.
	QueryWithin(query []float32, radius float64, k int) (ids []string, distances []float64, err error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dims returns the vector dimensionality, or 0 when empty.
	Dims() int
}

var (
	_ Index = (*kd.Index)(nil)
	_ Index = (*bruteforce.Index)(nil)
)

const (
	KindAuto  = "auto"
	KindKD    = "kd"
	KindBrute = "brute"

	// DefaultAutoMinDocs is the smallest set for which auto selects the k-d tree.
	DefaultAutoMinDocs = 64
	// DefaultAutoMaxDim is the largest dimensionality for which auto selects the k-d tree.
	DefaultAutoMaxDim = 16
)

// Options controls which index Build creates.
type Options struct {
	Kind        string
	Distance    kdtree.DistanceFunction
	AutoMinDocs int
	AutoMaxDim  int
	Logger      *slog.Logger
}

// ParseKind normalizes an index kind name.
func ParseKind(kind string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(kind)); k {
	case "", KindAuto:
		return KindAuto, nil
	case KindKD, "kdtree":
		return KindKD, nil
	case KindBrute, "bruteforce", "flat":
		return KindBrute, nil
	default:
		return "", fmt.Errorf("index: unknown index kind %q", kind)
	}
}

// Resolve maps a configured kind onto a concrete one. Auto picks the k-d
// tree for low-dimensional sets large enough for pruning to pay off; k-d
// trees degrade towards a linear scan as dimensionality grows.
func (o Options) Resolve(docCount, dim int) string {
	switch o.Kind {
	case KindKD, KindBrute:
		return o.Kind
	}
	minDocs := o.AutoMinDocs
	if minDocs <= 0 {
		minDocs = DefaultAutoMinDocs
	}
	maxDim := o.AutoMaxDim
	if maxDim <= 0 {
		maxDim = DefaultAutoMaxDim
	}
	if docCount >= minDocs && dim > 0 && dim <= maxDim {
		return KindKD
	}
	return KindBrute
}

// Build resolves the index kind for the given vectors, then creates and
// builds the index.
func Build(opts Options, ids []string, vectors [][]float32) (Index, error) {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	var idx Index
	switch opts.Resolve(len(vectors), dim) {
	case KindKD:
		idx = kd.New(kd.WithDistance(opts.Distance), kd.WithLogger(opts.Logger))
	default:
		idx = bruteforce.New(opts.Distance)
	}
	if err := idx.Build(ids, vectors); err != nil {
		return nil, err
	}
	return idx, nil
}

// Resolve maps kind onto a concrete kind using the default auto thresholds.
func Resolve(kind string, docCount, dim int) string {
	return Options{Kind: kind}.Resolve(docCount, dim)
}
