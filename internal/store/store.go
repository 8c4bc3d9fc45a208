package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the underlying database handle. Repository access goes
// through internal/store/sqlite, which wraps *Store in the Repository
// contract (repo.go).
type Store struct {
	DB *sqlx.DB
}

// Open creates a new Store connected to the SQLite database at dsn and
// applies the recommended pragmas. Schema creation is the caller's
// responsibility (internal/store/sqlite.Migrate).
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	// modernc.org/sqlite is a single-writer engine; serializing on one
	// connection avoids SQLITE_BUSY under concurrent access and, for
	// in-memory DSNs, keeps every query on the same database instead of
	// each pooled connection seeing its own empty one.
	db.SetMaxOpenConns(1)

	return &Store{DB: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. ENGINE_DB environment variable
// 2. $XDG_DATA_HOME/hemisphere-engine/engine.db
// 3. ~/.local/share/hemisphere-engine/engine.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("ENGINE_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "hemisphere-engine", "engine.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// EnsureDir creates the parent directory of path if it doesn't exist. It is
// exported for callers (e.g. the CLI's --db flag) that resolve their own
// path outside of DefaultDBPath.
func EnsureDir(path string) error {
	return ensureDir(path)
}
