package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/vector"
)

// SQLiteStore implements Store on a SQLite database. Documents are stored in
// the docs table; searches run against an index built from all stored
// embeddings, which is discarded whenever the table is modified.
type SQLiteStore struct {
	db        *sql.DB
	config    *Config
	indexOpts index.Options
	logger    *slog.Logger

	mu  sync.Mutex
	idx index.Index
}

// NewSQLiteStore creates a new SQLite-backed Store. It ensures the docs
// schema exists in the provided database.
func NewSQLiteStore(db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	s := &SQLiteStore{
		db:     db,
		config: NewDefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	indexOpts, err := s.config.IndexOptions()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	indexOpts.Logger = s.logger
	s.indexOpts = indexOpts
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return s, nil
}

// AddDocuments inserts documents into the docs table. Document.ID must be set.
func (s *SQLiteStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO docs(id, content, meta, embedding) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("store: Document.ID must be set in AddDocuments")
		}
		emb, err := vector.EncodeEmbedding(d.Embedding)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Content, d.Metadata, emb); err != nil {
			return nil, err
		}
		ids = append(ids, d.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.invalidate("add")
	return ids, nil
}

// SimilaritySearch returns up to k documents nearest to queryEmbedding.
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, k int) ([]Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	idx, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	ids, distances, err := idx.Query(queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return s.fetch(ctx, ids, distances)
}

// SearchWithin returns up to k documents within radius of queryEmbedding.
func (s *SQLiteStore) SearchWithin(ctx context.Context, queryEmbedding []float32, radius float64, k int) ([]Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	idx, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	ids, distances, err := idx.QueryWithin(queryEmbedding, radius, k)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return s.fetch(ctx, ids, distances)
}

// Remove deletes a document by ID from the docs table.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("store: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id); err != nil {
		return err
	}
	s.invalidate("remove")
	return nil
}

// loadIndex returns the cached index, building it from the docs table when absent.
// The lock is held across the build so a concurrent write cannot be lost: its
// invalidation waits for the build and then discards the result.
func (s *SQLiteStore) loadIndex(ctx context.Context) (index.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		return s.idx, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM docs WHERE embedding IS NOT NULL ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	var vectors [][]float32
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		vec, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("store: document %q: %w", id, err)
		}
		if len(vec) == 0 {
			continue
		}
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	idx, err := index.Build(s.indexOpts, ids, vectors)
	if err != nil {
		return nil, fmt.Errorf("store: build index: %w", err)
	}
	s.logger.Debug("store index built", "docs", idx.Len(), "dims", idx.Dims(), "kind", fmt.Sprintf("%T", idx))
	s.idx = idx
	return idx, nil
}

func (s *SQLiteStore) invalidate(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		s.logger.Debug("store index invalidated", "reason", reason)
	}
	s.idx = nil
}

// fetch loads documents for ids, preserving their order. Documents removed
// since the index was built are skipped.
func (s *SQLiteStore) fetch(ctx context.Context, ids []string, distances []float64) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, meta, embedding FROM docs WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]Document, len(ids))
	for rows.Next() {
		var d Document
		var content, meta sql.NullString
		var blob []byte
		if err := rows.Scan(&d.ID, &content, &meta, &blob); err != nil {
			return nil, err
		}
		d.Content = content.String
		d.Metadata = meta.String
		if d.Embedding, err = vector.DecodeEmbedding(blob); err != nil {
			return nil, err
		}
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(ids))
	for i, id := range ids {
		d, ok := byID[id]
		if !ok {
			continue
		}
		d.Distance = distances[i]
		out = append(out, d)
	}
	return out, nil
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
