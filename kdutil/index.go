package kdutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kd/kdtab"
	"github.com/viant/sqlite-kd/vector"
)

// Index binds a kd virtual table and one of its datasets.
type Index struct {
	DB          *sql.DB
	VirtualName string
	ShadowName  string
	Column      string
	DatasetID   string
	// Embed is optional; it is required by the text helpers only.
	Embed EmbedFunc
}

// NewIndex constructs an Index for a kd virtual table declared with the
// default value column. It creates the shadow table and its invalidation
// triggers when missing, so kdtab.Register must have been called.
func NewIndex(db *sql.DB, virtualTable, datasetID string) (*Index, error) {
	if db == nil {
		return nil, fmt.Errorf("kdutil: db is nil")
	}
	if virtualTable == "" || datasetID == "" {
		return nil, fmt.Errorf("kdutil: virtual table and dataset are required")
	}
	if err := kdtab.EnsureShadow(db, virtualTable); err != nil {
		return nil, err
	}
	return &Index{
		DB:          db,
		VirtualName: virtualTable,
		ShadowName:  kdtab.ShadowTableName(virtualTable),
		Column:      "value",
		DatasetID:   datasetID,
	}, nil
}

// Document is a point stored in a kd shadow table.
type Document struct {
	DatasetID string
	ID        string
	Content   string
	Meta      string
	Embedding []float32
}

// Match is a single nearest-neighbour hit.
type Match struct {
	ID       string
	Distance float64
	Content  string
	Meta     string
}

// Upsert inserts or replaces documents in the index dataset. Shadow triggers
// discard the cached tree; it is rebuilt on the next query.
func (ix *Index) Upsert(ctx context.Context, docs ...Document) error {
	for _, d := range docs {
		d.DatasetID = ix.DatasetID
		if err := UpsertShadowDocument(ctx, ix.DB, ix.ShadowName, d); err != nil {
			return err
		}
	}
	return nil
}

// UpsertText embeds content with Embed and upserts the document.
func (ix *Index) UpsertText(ctx context.Context, id, content, meta string) error {
	if ix.Embed == nil {
		return fmt.Errorf("kdutil: EmbedFunc is nil on Index")
	}
	vec, err := ix.Embed(ctx, content)
	if err != nil {
		return err
	}
	return ix.Upsert(ctx, Document{ID: id, Content: content, Meta: meta, Embedding: vec})
}

// Delete removes documents with the given ids from the index dataset.
func (ix *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if ix.DB == nil {
		return fmt.Errorf("kdutil: DB is nil on Index")
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ? AND id = ?", ix.ShadowName)
	for _, id := range ids {
		if _, err := ix.DB.ExecContext(ctx, stmt, ix.DatasetID, id); err != nil {
			return err
		}
	}
	return nil
}

// NearestTo returns up to k documents nearest to query, ascending by distance.
func (ix *Index) NearestTo(ctx context.Context, query []float32, k int) ([]Match, error) {
	sqlText := fmt.Sprintf("SELECT %s, distance FROM %s WHERE dataset_id = ? AND %s MATCH ? AND k = ?", ix.Column, ix.VirtualName, ix.Column)
	return ix.nearest(ctx, sqlText, query, k)
}

// NearestWithin returns up to k documents within radius of query, ascending
// by distance. radius is in coordinate units for every metric.
func (ix *Index) NearestWithin(ctx context.Context, query []float32, radius float64, k int) ([]Match, error) {
	sqlText := fmt.Sprintf("SELECT %s, distance FROM %s WHERE dataset_id = ? AND %s MATCH ? AND k = ? AND radius = ?", ix.Column, ix.VirtualName, ix.Column)
	return ix.nearest(ctx, sqlText, query, k, radius)
}

// NearestToText embeds text with Embed and runs NearestTo.
func (ix *Index) NearestToText(ctx context.Context, text string, k int) ([]Match, error) {
	if ix.Embed == nil {
		return nil, fmt.Errorf("kdutil: EmbedFunc is nil on Index")
	}
	vec, err := ix.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return ix.NearestTo(ctx, vec, k)
}

func (ix *Index) nearest(ctx context.Context, sqlText string, query []float32, k int, extra ...any) ([]Match, error) {
	if ix.DB == nil {
		return nil, fmt.Errorf("kdutil: DB is nil on Index")
	}
	blob, err := vector.EncodeEmbedding(query)
	if err != nil {
		return nil, err
	}
	args := append([]any{ix.DatasetID, blob, k}, extra...)
	rows, err := ix.DB.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Distance); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, m)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	// content and meta come from the shadow table once the vtab cursor is closed
	stmt := fmt.Sprintf("SELECT content, meta FROM %s WHERE dataset_id = ? AND id = ?", ix.ShadowName)
	for i := range out {
		var content, meta sql.NullString
		if err := ix.DB.QueryRowContext(ctx, stmt, ix.DatasetID, out[i].ID).Scan(&content, &meta); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, err
		}
		out[i].Content = content.String
		out[i].Meta = meta.String
	}
	return out, nil
}
