package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-kd/engine"
	"github.com/viant/sqlite-kd/kdtree"
)

func openStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	db, err := engine.Open(":memory:")
	require.NoError(t, err)
	// a single connection keeps every statement on the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	s, err := NewSQLiteStore(db, opts...)
	require.NoError(t, err)
	return s
}

func idsOf(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

// TestSQLiteStore_AddSearchRemove exercises inserting documents, searching by
// embedding and removing a document.
func TestSQLiteStore_AddSearchRemove(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "d1", Content: "first", Metadata: "{}", Embedding: []float32{4, -1}},
		{ID: "d2", Content: "second", Metadata: "{}", Embedding: []float32{-10, -1}},
		{ID: "d3", Content: "third", Metadata: "{}", Embedding: []float32{-9, 1}},
		{ID: "d4", Content: "fourth", Embedding: []float32{5, -4}},
		{ID: "d5", Content: "fifth", Embedding: []float32{-8, 1}},
		{ID: "d6", Content: "no embedding"},
	}
	ids, err := s.AddDocuments(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2", "d3", "d4", "d5", "d6"}, ids)

	out, err := s.SimilaritySearch(ctx, []float32{4, -4}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d4", "d1"}, idsOf(out))
	assert.Equal(t, "fourth", out[0].Content)
	assert.Equal(t, []float32{5, -4}, out[0].Embedding)
	assert.Equal(t, 1.0, out[0].Distance)
	assert.Equal(t, 9.0, out[1].Distance)

	out, err = s.SearchWithin(ctx, []float32{4, -4}, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"d4", "d1"}, idsOf(out))

	require.NoError(t, s.Remove(ctx, "d4"))
	out, err = s.SimilaritySearch(ctx, []float32{4, -4}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d5"}, idsOf(out))

	out, err = s.SimilaritySearch(ctx, []float32{4, -4}, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLiteStore_Errors(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	out, err := s.SimilaritySearch(ctx, []float32{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = s.AddDocuments(ctx, []Document{{Content: "missing id"}})
	assert.Error(t, err)
	assert.Error(t, s.Remove(ctx, ""))

	_, err = s.AddDocuments(ctx, []Document{{ID: "a", Embedding: []float32{1, 2}}})
	require.NoError(t, err)
	_, err = s.AddDocuments(ctx, []Document{{ID: "a", Embedding: []float32{1, 2}}})
	assert.Error(t, err, "duplicate id")

	_, err = s.SimilaritySearch(ctx, []float32{1, 2, 3}, 1)
	assert.ErrorIs(t, err, kdtree.ErrDimensionMismatch)
	_, err = s.SimilaritySearch(ctx, []float32{1, 2}, -1)
	assert.ErrorIs(t, err, kdtree.ErrInvalidParameter)
	_, err = s.SearchWithin(ctx, []float32{1, 2}, 0, 1)
	assert.ErrorIs(t, err, kdtree.ErrInvalidParameter)

	_, err = NewSQLiteStore(nil)
	assert.Error(t, err)
	db, err := engine.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	_, err = NewSQLiteStore(db, WithConfig(&Config{Distance: "cosine"}))
	assert.Error(t, err)
}

func TestSQLiteStore_KDIndex(t *testing.T) {
	for _, distance := range []string{"l2sq", "l2", "l1", "linf"} {
		t.Run(distance, func(t *testing.T) {
			buf := new(bytes.Buffer)
			logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			kd := openStore(t, WithConfig(&Config{Distance: distance, Index: "kd"}), WithLogger(logger))
			brute := openStore(t, WithConfig(&Config{Distance: distance, Index: "brute"}))
			ctx := context.Background()

			rng := rand.New(rand.NewSource(7))
			docs := make([]Document, 300)
			for i := range docs {
				docs[i] = Document{
					ID:        fmt.Sprintf("doc-%03d", i),
					Embedding: []float32{float32(rng.Intn(1000)), float32(rng.Intn(1000)), float32(rng.Intn(1000))},
				}
			}
			_, err := kd.AddDocuments(ctx, docs)
			require.NoError(t, err)
			_, err = brute.AddDocuments(ctx, docs)
			require.NoError(t, err)

			for i := 0; i < 20; i++ {
				q := []float32{float32(rng.Intn(1000)), float32(rng.Intn(1000)), float32(rng.Intn(1000))}
				got, err := kd.SimilaritySearch(ctx, q, 5)
				require.NoError(t, err)
				want, err := brute.SimilaritySearch(ctx, q, 5)
				require.NoError(t, err)
				require.Len(t, got, len(want))
				for j := range want {
					assert.InDelta(t, want[j].Distance, got[j].Distance, 1e-3)
				}
			}
			assert.Contains(t, buf.String(), "store index built")
			assert.Contains(t, buf.String(), "*kd.Index")
		})
	}
}
