package kdtab

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/kdtree"
	"modernc.org/sqlite/vtab"
)

// Module implements vtab.Module for the kd virtual table. The module is
// registered process-wide; tables bind to the database most recently passed
// to Register.
type Module struct {
	db atomic.Pointer[sql.DB]
}

var module = &Module{}

// Table represents a single kd virtual table instance.
type Table struct {
	db        *sql.DB
	dbName    string
	tableName string
	shadow    string // qualified shadow table name (e.g. "main._kd_places")
	options   index.Options

	shadowMu    sync.Mutex
	shadowReady bool

	dbPathOnce sync.Once
	dbPath     string
}

// Column layout of the declared table.
const (
	colDataset = iota
	colValue
	colDistance
	colK
	colRadius
)

// Query plan bits passed as idxNum; constraint arguments arrive in this order.
const (
	planDataset = 1 << iota
	planMatch
	planK
	planRadius
)

// tables remembers the options of every connected table so that
// administrative rebuilds use the table's metric.
var tables = struct {
	mu     sync.RWMutex
	byName map[string]index.Options
}{byName: make(map[string]index.Options)}

func tableOptions(tableName string) index.Options {
	tables.mu.RLock()
	defer tables.mu.RUnlock()
	if opts, ok := tables.byName[tableName]; ok {
		return opts
	}
	return index.Options{Kind: index.KindAuto, Distance: kdtree.DistanceFunctionSquaredEuclidean}
}

// Register registers the kd virtual table module and the kd_invalidate
// function used by shadow triggers.
func Register(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("kd: db is nil")
	}
	module.db.Store(db)
	if err := vtab.RegisterModule(db, "kd", module); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	if err := registerInvalidate(); err != nil {
		return fmt.Errorf("kd: register kd_invalidate: %w", err)
	}
	return nil
}

// Create initializes a kd table instance. The shadow table is created on
// first use to avoid cross-connection DDL while SQLite holds the schema lock.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing kd table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("kd: expects at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("kd: EnableConstraintSupport failed: %w", err)
	}
	// Determine declared column name from args (e.g. USING kd(value)).
	col := "value"
	optStart := 3
	if len(args) > 3 {
		a := strings.TrimSpace(args[3])
		if a != "" && !strings.Contains(a, "=") {
			col = a
			optStart = 4
		}
	}
	opts, err := parseTableOptions(args[optStart:])
	if err != nil {
		return nil, err
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s TEXT, distance REAL HIDDEN, k INTEGER HIDDEN, radius REAL HIDDEN)", args[2], col)); err != nil {
		return nil, err
	}
	t := &Table{db: m.db.Load(), dbName: args[1], tableName: args[2], options: opts}
	t.shadow = t.qualifiedShadow()
	tables.mu.Lock()
	tables.byName[t.tableName] = opts
	tables.mu.Unlock()
	return t, nil
}

// parseTableOptions reads key=value module arguments. Unknown keys are ignored.
func parseTableOptions(args []string) (index.Options, error) {
	opts := index.Options{Kind: index.KindAuto, Distance: kdtree.DistanceFunctionSquaredEuclidean}
	for _, raw := range args {
		key, val, ok := strings.Cut(strings.TrimSpace(raw), "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.Trim(strings.TrimSpace(val), `'"`)
		var err error
		switch key {
		case "distance":
			opts.Distance, err = kdtree.ParseDistanceFunction(val)
		case "index":
			opts.Kind, err = index.ParseKind(val)
		case "auto_min_docs":
			opts.AutoMinDocs, err = strconv.Atoi(val)
		case "auto_max_dim":
			opts.AutoMaxDim, err = strconv.Atoi(val)
		}
		if err != nil {
			return opts, fmt.Errorf("kd: invalid option %s: %w", key, err)
		}
	}
	return opts, nil
}

// BestIndex requires dataset_id equality and pushes down MATCH on the value
// column together with the optional k and radius constraints.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var (
		datasetConstraint *vtab.Constraint
		matchConstraint   *vtab.Constraint
		kConstraint       *vtab.Constraint
		radiusConstraint  *vtab.Constraint
	)
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == colDataset && c.Op == vtab.OpEQ && datasetConstraint == nil:
			datasetConstraint = c
		case c.Column == colValue && c.Op == vtab.OpMATCH && matchConstraint == nil:
			matchConstraint = c
		case c.Column == colK && c.Op == vtab.OpEQ && kConstraint == nil:
			kConstraint = c
		case c.Column == colRadius && c.Op == vtab.OpEQ && radiusConstraint == nil:
			radiusConstraint = c
		}
	}

	if datasetConstraint == nil {
		if matchConstraint != nil {
			return fmt.Errorf("kd: dataset_id constraint is required with MATCH")
		}
		return fmt.Errorf("kd: dataset_id constraint required")
	}

	nextArg := 0
	use := func(c *vtab.Constraint, bit int) {
		if c == nil {
			return
		}
		c.ArgIndex = nextArg
		c.Omit = true
		nextArg++
		info.IdxNum |= bit
	}
	info.IdxNum = 0
	use(datasetConstraint, planDataset)
	if matchConstraint != nil {
		use(matchConstraint, planMatch)
		use(kConstraint, planK)
		use(radiusConstraint, planRadius)
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy forgets cached indexes; the shadow table persists.
func (t *Table) Destroy() error {
	InvalidateCache(t.shadow, "")
	tables.mu.Lock()
	delete(tables.byName, t.tableName)
	tables.mu.Unlock()
	return nil
}
