// Package kdadmin provides administrative operations on kd virtual tables
// through the kd_admin virtual table.
package kdadmin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/viant/sqlite-kd/kdtab"
	"modernc.org/sqlite/vtab"
)

// Module provides administrative operations via a virtual table.
// Usage:
//
//	CREATE VIRTUAL TABLE kd_admin USING kd_admin(op);
//	SELECT op FROM kd_admin WHERE op MATCH 'main._kd_places'; -- rebuild and check
//
// Returns a single row with op='checked:<datasets>:<points>' on success.
type Module struct {
	db atomic.Pointer[sql.DB]
}

var module = &Module{}

// Table is a kd_admin table instance.
type Table struct{ db *sql.DB }

// Cursor holds the single result row of an operation.
type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

// Register registers the kd_admin module. The module is registered
// process-wide; tables bind to the database most recently passed here.
func Register(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("kd_admin: db is nil")
	}
	module.db.Store(db)
	if err := vtab.RegisterModule(db, "kd_admin", module); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("kd_admin: need at least 3 args")
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("kd_admin: EnableConstraintSupport failed: %w", err)
	}
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op TEXT)", args[2])); err != nil {
		return nil, err
	}
	return &Table{db: m.db.Load()}, nil
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = 1
			break
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }
func (t *Table) Disconnect() error          { return nil }
func (t *Table) Destroy() error             { return nil }

func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	shadow, ok := vals[0].(string)
	if !ok {
		return fmt.Errorf("kd_admin: MATCH expects shadow table name as TEXT")
	}
	datasets, points, err := kdtab.Rebuild(context.Background(), c.table.db, strings.TrimSpace(shadow))
	if err != nil {
		return err
	}
	c.rows = []string{fmt.Sprintf("checked:%d:%d", datasets, points)}
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("kd_admin: Column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}

func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }
func (c *Cursor) Close() error          { c.rows = nil; c.pos = 0; return nil }
