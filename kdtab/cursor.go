package kdtab

import (
	"context"
	"fmt"

	"modernc.org/sqlite/vtab"
)

type row struct {
	rowid    int64
	dataset  string
	id       string
	distance float64
}

// Cursor scans results from a kd table.
type Cursor struct {
	table  *Table
	rows   []row
	pos    int
	match  bool
	k      vtab.Value
	radius vtab.Value
}

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	_ = idxStr
	c.rows = nil
	c.pos = 0
	c.match = false
	c.k = nil
	c.radius = nil
	if c.table == nil || c.table.db == nil {
		return nil
	}
	if idxNum&planDataset == 0 {
		return fmt.Errorf("kd: dataset_id argument is required")
	}
	want := 1
	for _, bit := range []int{planMatch, planK, planRadius} {
		if idxNum&bit != 0 {
			want++
		}
	}
	if len(vals) < want || vals[0] == nil {
		return fmt.Errorf("kd: expected %d constraint arguments, got %d", want, len(vals))
	}
	dataset, err := asString(vals[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	if idxNum&planMatch == 0 {
		queries.WithLabelValues("scan").Inc()
		return c.scan(ctx, dataset)
	}

	if vals[1] == nil {
		return fmt.Errorf("kd: MATCH argument is required")
	}
	query, err := decodeMatchArg(vals[1])
	if err != nil {
		return err
	}
	next := 2
	k := -1
	if idxNum&planK != 0 {
		c.k = vals[next]
		if k, err = asInt(vals[next]); err != nil {
			return err
		}
		next++
	}
	var radius float64
	bounded := idxNum&planRadius != 0
	if bounded {
		c.radius = vals[next]
		if radius, err = asFloat(vals[next]); err != nil {
			return err
		}
	}

	built, err := c.table.ensureIndex(ctx, dataset)
	if err != nil {
		return err
	}
	if idxNum&planK == 0 {
		k = built.idx.Len()
	}
	var ids []string
	var distances []float64
	if bounded {
		queries.WithLabelValues("radius").Inc()
		ids, distances, err = built.idx.QueryWithin(query, radius, k)
	} else {
		queries.WithLabelValues("knn").Inc()
		ids, distances, err = built.idx.Query(query, k)
	}
	if err != nil {
		return err
	}
	c.rows = make([]row, 0, len(ids))
	for i, id := range ids {
		c.rows = append(c.rows, row{rowid: built.rowids[id], dataset: dataset, id: id, distance: distances[i]})
	}
	c.match = true
	return nil
}

// scan lists every row of a dataset in rowid order.
func (c *Cursor) scan(ctx context.Context, dataset string) error {
	if err := c.table.ensureShadow(); err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT rowid, id FROM %s WHERE dataset_id = ? ORDER BY rowid", c.table.shadow)
	rows, err := c.table.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		r := row{dataset: dataset}
		if err := rows.Scan(&r.rowid, &r.id); err != nil {
			return err
		}
		c.rows = append(c.rows, r)
	}
	return rows.Err()
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row. distance is NULL
// outside MATCH queries.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("kd: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case colDataset:
		return r.dataset, nil
	case colValue:
		return r.id, nil
	case colDistance:
		if !c.match {
			return nil, nil
		}
		return r.distance, nil
	case colK:
		return c.k, nil
	case colRadius:
		return c.radius, nil
	}
	return nil, fmt.Errorf("kd: unsupported column %d", col)
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("kd: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }
