package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with pastemark-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS pastes (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL DEFAULT 'web' CHECK(source IN ('web','api','cli')),
    removal_hash TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    expires_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_pastes_created ON pastes(created_at);
CREATE INDEX IF NOT EXISTS idx_pastes_expires ON pastes(expires_at);

CREATE TABLE IF NOT EXISTS paste_files (
    id TEXT PRIMARY KEY,
    paste_id TEXT NOT NULL REFERENCES pastes(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    filename TEXT NOT NULL DEFAULT '',
    lexer TEXT NOT NULL DEFAULT 'autodetect',
    content TEXT NOT NULL,
    UNIQUE(paste_id, position)
);

CREATE INDEX IF NOT EXISTS idx_paste_files_paste ON paste_files(paste_id, position);
`
