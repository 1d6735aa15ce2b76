package kdtab

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const shadowPrefix = "_kd_"

// ShadowTableName derives the shadow table name for a kd virtual table.
//
// For example:
//
//	ShadowTableName("places") == "_kd_places"
func ShadowTableName(virtualTable string) string {
	return shadowPrefix + virtualTable
}

// EnsureShadow creates the shadow table of a kd virtual table in the main
// schema, together with the triggers that invalidate cached indexes. Call it
// before writing rows so every write is observed.
func EnsureShadow(db *sql.DB, virtualTable string) error {
	t := &Table{db: db, dbName: "main", tableName: virtualTable}
	t.shadow = t.qualifiedShadow()
	return t.createShadow()
}

// ensureShadow creates the shadow table once per Table.
func (t *Table) ensureShadow() error {
	t.shadowMu.Lock()
	defer t.shadowMu.Unlock()
	if t.shadowReady {
		return nil
	}
	if err := t.createShadow(); err != nil {
		return err
	}
	t.shadowReady = true
	return nil
}

func (t *Table) createShadow() error {
	if t.db == nil {
		return fmt.Errorf("kd: db is nil")
	}
	name := t.shadow
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    dataset_id TEXT NOT NULL,
    id TEXT NOT NULL,
    content TEXT,
    meta TEXT,
    embedding BLOB,
    PRIMARY KEY(dataset_id, id)
);
`, name)
	if _, err := t.db.Exec(stmt); err != nil {
		return err
	}
	// Any shadow change drops the cached index of the affected datasets.
	trigBase := sanitizeName("trg_kd_" + t.shadow)
	shadowLit := quoteLiteral(t.shadow)
	invNew := `SELECT kd_invalidate(` + shadowLit + `, NEW.dataset_id);`
	invOld := `SELECT kd_invalidate(` + shadowLit + `, OLD.dataset_id);`
	triggers := []string{
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_ins AFTER INSERT ON %s BEGIN %s END;`, trigBase, name, invNew),
		// both datasets, an update may move a row
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_upd AFTER UPDATE ON %s BEGIN %s %s END;`, trigBase, name, invNew, invOld),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_del AFTER DELETE ON %s BEGIN %s END;`, trigBase, name, invOld),
	}
	for _, trigger := range triggers {
		if _, err := t.db.Exec(trigger); err != nil {
			return err
		}
	}
	return nil
}

// qualifiedShadow returns a fully-qualified shadow table name.
func (t *Table) qualifiedShadow() string {
	base := ShadowTableName(t.tableName)
	if strings.TrimSpace(t.dbName) == "" {
		return base
	}
	return t.dbName + "." + base
}

func tableNameFromShadow(shadow string) string {
	if shadow == "" {
		return ""
	}
	if i := strings.Index(shadow, "."+shadowPrefix); i >= 0 {
		return shadow[i+len("."+shadowPrefix):]
	}
	if strings.HasPrefix(shadow, shadowPrefix) {
		return strings.TrimPrefix(shadow, shadowPrefix)
	}
	return ""
}

func resolveDbPath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("kd: db is nil")
	}
	rows, err := db.QueryContext(ctx, `SELECT name, file FROM pragma_database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	if dbName == "" {
		dbName = "main"
	}
	for rows.Next() {
		var name, file string
		if err := rows.Scan(&name, &file); err != nil {
			return "", err
		}
		if name != dbName {
			continue
		}
		if file == "" {
			return name, nil
		}
		return file, nil
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return dbName, nil
}

func (t *Table) cachedDbPath(ctx context.Context) string {
	t.dbPathOnce.Do(func() {
		path, err := resolveDbPath(ctx, t.db, t.dbName)
		if err != nil {
			log().Warn("kd: cannot resolve database path", "db", t.dbName, "error", err)
			path = t.dbName
			if path == "" {
				path = "main"
			}
		}
		t.dbPath = path
	})
	return t.dbPath
}

// validShadowName reports whether name is a plain, optionally schema
// qualified, kd shadow table identifier safe to interpolate into SQL.
func validShadowName(name string) bool {
	if tableNameFromShadow(name) == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// sanitizeName converts a qualified name into a safe identifier for triggers.
func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '.', '-', ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// quoteLiteral returns SQL string literal with single quotes escaped for safe embedding.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
