package kd

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-kd/index/bruteforce"
	"github.com/viant/sqlite-kd/kdtree"
)

func randomVectors(rng *rand.Rand, n, dims int) ([]string, [][]float32) {
	ids := make([]string, n)
	vectors := make([][]float32, n)
	for i := range vectors {
		ids[i] = fmt.Sprintf("doc-%d", i)
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32(rng.Float64()*200 - 100)
		}
		vectors[i] = v
	}
	return ids, vectors
}

func TestIndex_Query(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(
		[]string{"a", "b", "c", "d", "e"},
		[][]float32{{4, -1}, {-10, -1}, {-9, 1}, {5, -4}, {-8, 1}},
	))
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, 2, idx.Dims())
	assert.Equal(t, kdtree.DistanceFunctionSquaredEuclidean, idx.Distance())
	require.NoError(t, idx.Check())

	ids, distances, err := idx.Query([]float32{4, -4}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, ids)
	assert.Equal(t, []float64{1, 9}, distances)

	ids, distances, err = idx.QueryWithin([]float32{4, -4}, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, ids)
	assert.Equal(t, []float64{1, 9}, distances)
}

func TestIndex_Unbuilt(t *testing.T) {
	idx := New()
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.Dims())
	assert.Equal(t, 0, idx.Height())
	assert.NoError(t, idx.Check())

	ids, _, err := idx.Query([]float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, _, err = idx.Query([]float32{1}, -1)
	assert.ErrorIs(t, err, kdtree.ErrInvalidParameter)
	_, _, err = idx.QueryWithin([]float32{1}, -1, 1)
	assert.ErrorIs(t, err, kdtree.ErrInvalidParameter)
}

func TestIndex_BuildErrors(t *testing.T) {
	assert.Error(t, New().Build([]string{"a"}, nil))
	assert.ErrorIs(t, New().Build([]string{"a", "b"}, [][]float32{{1, 2}, {3}}), kdtree.ErrDimensionMismatch)
	assert.ErrorIs(t, New(WithDistance("cosine")).Build([]string{"a"}, [][]float32{{1}}), kdtree.ErrInvalidParameter)

	idx := New()
	require.NoError(t, idx.Build([]string{"a"}, [][]float32{{1, 2}}))
	_, _, err := idx.Query([]float32{1, 2, 3}, 1)
	assert.ErrorIs(t, err, kdtree.ErrDimensionMismatch)
}

func TestIndex_OwnsVectors(t *testing.T) {
	vectors := [][]float32{{1, 1}, {5, 5}}
	idx := New()
	require.NoError(t, idx.Build([]string{"a", "b"}, vectors))
	vectors[0][0] = 100
	ids, distances, err := idx.Query([]float32{1, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.Equal(t, []float64{0}, distances)
}

func TestIndex_MatchesBruteForce(t *testing.T) {
	distances := []kdtree.DistanceFunction{
		kdtree.DistanceFunctionSquaredEuclidean,
		kdtree.DistanceFunctionEuclidean,
		kdtree.DistanceFunctionManhattan,
		kdtree.DistanceFunctionChebyshev,
	}
	for _, distance := range distances {
		t.Run(string(distance), func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			ids, vectors := randomVectors(rng, 500, 4)
			tree := New(WithDistance(distance))
			require.NoError(t, tree.Build(ids, vectors))
			require.NoError(t, tree.Check())
			oracle := bruteforce.New(distance)
			require.NoError(t, oracle.Build(ids, vectors))

			_, queries := randomVectors(rng, 50, 4)
			for _, q := range queries {
				for _, k := range []int{1, 7, 40} {
					_, got, err := tree.Query(q, k)
					require.NoError(t, err)
					_, want, err := oracle.Query(q, k)
					require.NoError(t, err)
					assert.InDeltaSlice(t, want, got, 1e-4)

					_, got, err = tree.QueryWithin(q, 30, k)
					require.NoError(t, err)
					_, want, err = oracle.QueryWithin(q, 30, k)
					require.NoError(t, err)
					assert.Len(t, got, len(want))
					assert.InDeltaSlice(t, want, got, 1e-4)
				}
			}
		})
	}
}

func TestWithLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	idx := New(WithLogger(logger), WithDistance(kdtree.DistanceFunctionManhattan))
	require.NoError(t, idx.Build([]string{"a", "b", "c"}, [][]float32{{1}, {2}, {3}}))
	assert.Contains(t, buf.String(), "points=3")
	assert.Equal(t, kdtree.DistanceFunctionManhattan, idx.Distance())
}
