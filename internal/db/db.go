// Package db is the embedded persistence layer for pull requests. It keeps
// one SQLite database holding every tracked repository's open PRs plus a
// per-repository sync watermark, partitioned by the owning repository's
// database id.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"prdb/internal/schema"
)

// Store is a handle on the pull request database. It is opened once per
// process; SQLite serializes conflicting writes internally, so the store
// adds no locking of its own.
type Store struct {
	conn *sql.DB
	path string
	log  *slog.Logger
}

// dbtx is the common surface of *sql.DB and *sql.Tx, so the same statement
// helpers run standalone or inside a transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var (
	_ dbtx = (*sql.DB)(nil)
	_ dbtx = (*sql.Tx)(nil)
)

// Open opens (creating if necessary) the database at path and migrates it to
// the latest declared schema version. A failed migration closes the
// connection and propagates the engine's error.
func Open(path string, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting database pragmas: %w", err)
	}

	if err := schema.Migrate(conn, log, Steps); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: path, log: log}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the schema version the store is currently at.
func (s *Store) SchemaVersion() (int, error) {
	return schema.Version(s.conn)
}
