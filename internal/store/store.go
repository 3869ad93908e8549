package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a requested run or snapshot does not exist.
var ErrNotFound = errors.New("store: not found")

// pragmas are applied to every connection, in order.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// migration upgrades a database to version (its index in migrations + 1).
// schema.sql always creates the newest layout, so migrations only patch
// databases created by older releases.
type migration struct {
	name string
	stmt string
}

var migrations = []migration{
	{
		name: "index messages by kind",
		stmt: `CREATE INDEX IF NOT EXISTS idx_messages_run_kind ON messages(run_id, kind)`,
	},
}

// currentSchemaVersion is the user_version after all migrations.
var currentSchemaVersion = len(migrations)

// Store keeps the journal and snapshots of program runs in SQLite.
//
// Thread-safety: a Store is safe for concurrent use. It holds a single
// connection, so writes from several goroutines are serialized.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and brings its schema up to
// date. The connection runs in WAL mode with a 5s busy timeout, so readers
// in other processes (tea trace, tea replay) never block a recording run.
//
// ":memory:" opens a private in-memory database; the single connection
// keeps it alive until Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := setup(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func setup(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(ctx, db)
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		m := migrations[i]
		if _, err := db.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
	}

	// PRAGMA does not take bind parameters.
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying database for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) pragma(name string) (string, error) {
	var value string
	err := s.db.QueryRow("PRAGMA " + name).Scan(&value)
	return value, err
}
