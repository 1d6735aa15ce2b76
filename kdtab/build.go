package kdtab

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/index/kd"
	"github.com/viant/sqlite-kd/vector"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ensureIndex returns the cached index of a dataset, building it when absent.
// Concurrent callers wait for a single build.
func (t *Table) ensureIndex(ctx context.Context, dataset string) (*builtIndex, error) {
	if strings.TrimSpace(dataset) == "" {
		return nil, fmt.Errorf("kd: dataset_id is required")
	}
	if err := t.ensureShadow(); err != nil {
		return nil, err
	}
	entry := getCacheEntry(cacheKey(t.cachedDbPath(ctx), t.tableName, dataset))
	for {
		if data := entry.get(); data != nil {
			return data, nil
		}
		if generation, ok := entry.startBuild(); ok {
			data, err := t.buildIndex(ctx, dataset)
			entry.finishBuild(generation, data)
			return data, err
		}
		if data := entry.waitForBuild(); data != nil {
			return data, nil
		}
	}
}

func (t *Table) buildIndex(ctx context.Context, dataset string) (*builtIndex, error) {
	started := time.Now()
	ids, vecs, rowids, err := loadDataset(ctx, t.db, t.shadow, dataset)
	if err != nil {
		return nil, err
	}
	opts := t.options
	opts.Logger = log()
	idx, err := index.Build(opts, ids, vecs)
	if err != nil {
		return nil, fmt.Errorf("kd: dataset %q: %w", dataset, err)
	}
	kind := opts.Resolve(len(ids), idx.Dims())
	indexBuilds.WithLabelValues(kind).Inc()
	indexBuildDuration.Observe(time.Since(started).Seconds())
	log().Debug("kd index built", "table", t.tableName, "dataset", dataset, "points", idx.Len(), "dims", idx.Dims(), "kind", kind)
	return &builtIndex{idx: idx, rowids: rowids}, nil
}

// loadDataset reads the embeddings of one dataset; rows without an
// embedding are skipped.
func loadDataset(ctx context.Context, db queryer, shadow, dataset string) ([]string, [][]float32, map[string]int64, error) {
	q := fmt.Sprintf("SELECT rowid, id, embedding FROM %s WHERE dataset_id = ? AND embedding IS NOT NULL ORDER BY rowid", shadow)
	rows, err := db.QueryContext(ctx, q, dataset)
	if err != nil {
		return nil, nil, nil, err
	}
	defer rows.Close()
	var ids []string
	var vecs [][]float32
	rowids := make(map[string]int64)
	for rows.Next() {
		var rowid int64
		var id string
		var emb []byte
		if err := rows.Scan(&rowid, &id, &emb); err != nil {
			return nil, nil, nil, err
		}
		if len(emb) == 0 {
			continue
		}
		v, err := vector.DecodeEmbedding(emb)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("kd: row %q: %w", id, err)
		}
		ids = append(ids, id)
		vecs = append(vecs, v)
		rowids[id] = rowid
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}
	return ids, vecs, rowids, nil
}

// Rebuild builds a k-d tree for every dataset of the shadow table from a
// single read snapshot, validates each tree's invariants and then drops the
// cached indexes of the table. It returns the number of datasets and points.
func Rebuild(ctx context.Context, db *sql.DB, shadow string) (datasets int, points int, err error) {
	if db == nil {
		return 0, 0, fmt.Errorf("kd: db is nil")
	}
	if !validShadowName(shadow) {
		return 0, 0, fmt.Errorf("kd: invalid shadow table name %q", shadow)
	}
	opts := tableOptions(tableNameFromShadow(shadow))

	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	names, err := datasetNames(ctx, tx, shadow)
	if err != nil {
		return 0, 0, err
	}
	for _, name := range names {
		ids, vecs, _, err := loadDataset(ctx, tx, shadow, name)
		if err != nil {
			return 0, 0, err
		}
		tree := kd.New(kd.WithDistance(opts.Distance), kd.WithLogger(log()))
		if err := tree.Build(ids, vecs); err != nil {
			return 0, 0, fmt.Errorf("kd: dataset %q: %w", name, err)
		}
		if err := tree.Check(); err != nil {
			return 0, 0, fmt.Errorf("kd: dataset %q: %w", name, err)
		}
		points += tree.Len()
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	InvalidateCache(shadow, "")
	log().Info("kd rebuilt", "shadow", shadow, "datasets", len(names), "points", points)
	return len(names), points, nil
}

func datasetNames(ctx context.Context, db queryer, shadow string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT dataset_id FROM %s ORDER BY dataset_id", shadow))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
