// Package schema applies forward-only, version-numbered schema declarations
// to a SQLite database. The current schema version lives in PRAGMA
// user_version; each declared step runs at most once, inside its own
// transaction, and only when the stored version is below the step's number.
package schema

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Column is one column definition. Type carries the SQL type and any
// constraints, e.g. "TEXT NOT NULL".
type Column struct {
	Name string
	Type string
}

// Index is a secondary index over a table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table declares the full shape of one table: columns, composite primary
// key, and secondary indexes. Re-declaring a table at a later version
// replaces its shape entirely; it is not merged with the previous one.
type Table struct {
	Columns    []Column
	PrimaryKey []string
	Indexes    []Index
}

// Step is one version-numbered set of changes. A nil *Table value drops the
// named table. An empty Changes map is a legal version reservation.
type Step struct {
	Version int
	Changes map[string]*Table
}

// Version reads the database's current schema version.
func Version(conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Migrate brings conn up to the latest declared version. Steps must be
// declared in strictly ascending version order starting at 1 or above.
// Steps at or below the stored version are skipped; each remaining step is
// applied in one transaction that also advances user_version, so a failed
// step leaves the database at the last fully applied version.
func Migrate(conn *sql.DB, log *slog.Logger, steps []Step) error {
	prev := 0
	for _, step := range steps {
		if step.Version <= prev {
			return fmt.Errorf("schema steps out of order: version %d declared after %d", step.Version, prev)
		}
		prev = step.Version
	}

	current, err := Version(conn)
	if err != nil {
		return err
	}

	applied := 0
	for _, step := range steps {
		if step.Version <= current {
			continue
		}
		if err := applyStep(conn, step); err != nil {
			return fmt.Errorf("applying schema version %d: %w", step.Version, err)
		}
		log.Info("applied schema version", "version", step.Version, "changes", len(step.Changes))
		applied++
	}

	if applied > 0 {
		log.Info("schema migration complete", "from_version", current, "to_version", prev)
	} else {
		log.Debug("schema up to date", "version", current)
	}
	return nil
}

func applyStep(conn *sql.DB, step Step) error {
	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Apply in table-name order so a step's effect does not depend on map
	// iteration.
	names := make([]string, 0, len(step.Changes))
	for name := range step.Changes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := applyChange(tx, name, step.Changes[name]); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
	}

	// PRAGMA does not take placeholders; Version is a declared literal.
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, step.Version)); err != nil {
		return fmt.Errorf("advancing schema version: %w", err)
	}

	return tx.Commit()
}

func applyChange(tx *sql.Tx, name string, spec *Table) error {
	if spec == nil {
		_, err := tx.Exec(`DROP TABLE IF EXISTS ` + name)
		return err
	}

	exists, err := tableExists(tx, name)
	if err != nil {
		return err
	}

	if !exists {
		if _, err := tx.Exec(createTableSQL(name, spec)); err != nil {
			return err
		}
	} else if err := rebuildTable(tx, name, spec); err != nil {
		return err
	}

	if err := dropIndexes(tx, name); err != nil {
		return err
	}
	for _, idx := range spec.Indexes {
		if _, err := tx.Exec(createIndexSQL(name, idx)); err != nil {
			return err
		}
	}
	return nil
}

// rebuildTable replaces an existing table's shape with spec, carrying over
// the rows of every column present in both shapes.
func rebuildTable(tx *sql.Tx, name string, spec *Table) error {
	old, err := tableColumns(tx, name)
	if err != nil {
		return err
	}

	var shared []string
	for _, col := range spec.Columns {
		if old[col.Name] {
			shared = append(shared, col.Name)
		}
	}

	tmp := name + "_migration_new"
	if _, err := tx.Exec(createTableSQL(tmp, spec)); err != nil {
		return err
	}
	if len(shared) > 0 {
		cols := strings.Join(shared, ", ")
		if _, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s (%s) SELECT %s FROM %s`, tmp, cols, cols, name)); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DROP TABLE ` + name); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, tmp, name)); err != nil {
		return err
	}
	return nil
}

func tableExists(tx *sql.Tx, name string) (bool, error) {
	var n string
	err := tx.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// tableColumns returns the set of column names currently on a table.
func tableColumns(tx *sql.Tx, name string) (map[string]bool, error) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid      int
			colName  string
			colType  string
			notNull  int
			dflt     sql.NullString
			pkMember int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pkMember); err != nil {
			return nil, err
		}
		cols[colName] = true
	}
	return cols, rows.Err()
}

// dropIndexes removes every user-created index on a table so the declared
// set can be created from scratch. SQLite's own indexes (sqlite_autoindex_*)
// cannot and need not be dropped.
func dropIndexes(tx *sql.Tx, table string) error {
	rows, err := tx.Query(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name NOT LIKE 'sqlite_%'`, table)
	if err != nil {
		return err
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, n := range names {
		if _, err := tx.Exec(`DROP INDEX ` + n); err != nil {
			return err
		}
	}
	return nil
}

func createTableSQL(name string, spec *Table) string {
	defs := make([]string, 0, len(spec.Columns)+1)
	for _, col := range spec.Columns {
		defs = append(defs, fmt.Sprintf("    %s %s", col.Name, col.Type))
	}
	if len(spec.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(spec.PrimaryKey, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", name, strings.Join(defs, ",\n"))
}

func createIndexSQL(table string, idx Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s(%s)", unique, idx.Name, table, strings.Join(idx.Columns, ", "))
}
