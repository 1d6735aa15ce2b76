// Package kdutil provides client helpers for kd virtual tables: writing
// points into the shadow table and issuing nearest-neighbour queries.
package kdutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kd/vector"
)

// EmbedFunc converts free-form text into an embedding.
//
// Implementations can call any embedding provider as long as they return a
// slice of float32 values. The kd packages only depend on the numeric
// vectors and their encoded BLOB representation.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// UpsertShadowDocument inserts or updates a row in a kd shadow table.
//
// Table names are interpolated into SQL; callers should ensure that
// shadowTable is trusted and not derived from untrusted input.
func UpsertShadowDocument(ctx context.Context, db *sql.DB, shadowTable string, doc Document) error {
	if db == nil {
		return fmt.Errorf("kdutil: db is nil")
	}
	if doc.ID == "" {
		return fmt.Errorf("kdutil: document id is empty")
	}
	blob, err := vector.EncodeEmbedding(doc.Embedding)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`
INSERT INTO %s(dataset_id, id, content, meta, embedding)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(dataset_id, id) DO UPDATE SET
  content = excluded.content,
  meta = excluded.meta,
  embedding = excluded.embedding`, shadowTable)
	_, err = db.ExecContext(ctx, stmt, doc.DatasetID, doc.ID, doc.Content, doc.Meta, blob)
	return err
}
