// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed
// and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works
// everywhere Go works.
//
// An embedded, single-file database is exactly the right size for this
// service: one server process, modest write volume, zero infrastructure.
// Use ":memory:" for tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/otabek/ijara/internal/repository/sqlite/migrations"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The repository implementations share
// it through the Listings and Users accessors.
type DB struct {
	conn *sql.DB
}

// Listings returns the listing repository backed by this database.
func (db *DB) Listings() *ListingRepo {
	return &ListingRepo{conn: db.conn}
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserRepo {
	return &UserRepo{conn: db.conn}
}

// New opens (or creates) the database at dbPath, configures it and runs the
// embedded goose migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open does not actually connect — force an immediate connection
	// so a bad path surfaces here and not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets concurrent HTTP requests read while a write is in flight;
	// foreign keys are off by default in SQLite for historical reasons.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers must defer this next to New —
// it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies the embedded migrations with goose. Goose tracks applied
// versions in its own table, so restarting the server is always safe.
func (db *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.conn, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
