package bruteforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-kd/kdtree"
)

func TestIndex_Query(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	vectors := [][]float32{{4, -1}, {-10, -1}, {-9, 1}, {5, -4}, {-8, 1}}

	testCases := []struct {
		name      string
		distance  kdtree.DistanceFunction
		query     []float32
		k         int
		expectIDs []string
		expectD   []float64
	}{
		{name: "squared euclidean", query: []float32{4, -4}, k: 2, expectIDs: []string{"d", "a"}, expectD: []float64{1, 9}},
		{name: "manhattan", distance: kdtree.DistanceFunctionManhattan, query: []float32{4, -4}, k: 2, expectIDs: []string{"d", "a"}, expectD: []float64{1, 3}},
		{name: "k above size", query: []float32{0, 0}, k: 10, expectIDs: []string{"a", "d", "e", "c", "b"}, expectD: []float64{17, 41, 65, 82, 101}},
		{name: "k zero", query: []float32{0, 0}, k: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			idx := New(tc.distance)
			require.NoError(t, idx.Build(ids, vectors))
			gotIDs, gotD, err := idx.Query(tc.query, tc.k)
			require.NoError(t, err)
			assert.Equal(t, tc.expectIDs, gotIDs)
			assert.Equal(t, tc.expectD, gotD)
		})
	}
}

func TestIndex_QueryWithin(t *testing.T) {
	idx := New("")
	require.NoError(t, idx.Build(
		[]string{"a", "b", "c", "d", "e"},
		[][]float32{{4, -1}, {-10, -1}, {-9, 1}, {5, -4}, {-8, 1}},
	))
	ids, distances, err := idx.QueryWithin([]float32{4, -4}, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, ids)
	assert.Equal(t, []float64{1, 9}, distances)

	_, _, err = idx.QueryWithin([]float32{4, -4}, 0, 3)
	assert.ErrorIs(t, err, kdtree.ErrInvalidParameter)
}

func TestIndex_Errors(t *testing.T) {
	idx := &Index{}
	ids, _, err := idx.Query([]float32{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.Error(t, idx.Build([]string{"a"}, nil))
	assert.ErrorIs(t, idx.Build([]string{"a", "b"}, [][]float32{{1, 2}, {1}}), kdtree.ErrDimensionMismatch)
	assert.Error(t, New("cosine").Build([]string{"a"}, [][]float32{{1}}))

	require.NoError(t, idx.Build([]string{"a"}, [][]float32{{1, 2}}))
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 2, idx.Dims())
	_, _, err = idx.Query([]float32{1}, 1)
	assert.ErrorIs(t, err, kdtree.ErrDimensionMismatch)
	_, _, err = idx.Query([]float32{1}, 0)
	assert.ErrorIs(t, err, kdtree.ErrDimensionMismatch)
	_, _, err = idx.Query([]float32{1, 2}, -1)
	assert.ErrorIs(t, err, kdtree.ErrInvalidParameter)
}
