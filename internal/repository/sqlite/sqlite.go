// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. For a
// single-server CRUD app that is exactly the right amount of infrastructure.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a sql.DB connection pool and provides the repository methods.
// It implements repository.UserRepository, CategoryRepository, and
// ExpenseRepository so one value can be handed to every service.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and brings its schema
// up to date.
//
// Pragmas:
//   - journal_mode=WAL   → concurrent reads while a write is in progress
//   - foreign_keys=ON    → referential integrity for user_id references
//   - busy_timeout=5000  → writers wait for the lock instead of failing
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := runMigrations(dbPath); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// runMigrations applies the embedded SQL migrations.
//
// A separate connection is opened just for the migration run: golang-migrate
// takes ownership of the connection it is given and closes it, so sharing the
// main pool would tear it down.
func runMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// fmtTime renders a timestamp the way every time column in this schema
// stores it: UTC, "YYYY-MM-DD HH:MM:SS.fffffffff".
//
// WHY FORMAT EXPLICITLY INSTEAD OF PASSING time.Time TO THE DRIVER?
// The driver would pick its own text representation, possibly with a local
// zone offset — and then lexical comparison in SQL (range filters, ORDER BY,
// substr() date grouping) silently stops matching chronological order.
// Normalizing everything to UTC text keeps string order == time order.
func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.999999999")
}
