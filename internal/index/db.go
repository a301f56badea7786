package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwhitman/tally/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite index database at baseDir/index.db.
// The index is a derived cache of parsed activity intervals; the notes
// themselves remain the sole durable store and the index can be rebuilt
// from them at any time.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tally.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "index.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS files (
		  path        TEXT PRIMARY KEY,
		  mtime       INTEGER NOT NULL,
		  indexed_at  INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entries (
		  id          INTEGER PRIMARY KEY AUTOINCREMENT,
		  path        TEXT NOT NULL,
		  label       TEXT NOT NULL,
		  label_norm  TEXT NOT NULL,
		  task_ids    TEXT,
		  start       TEXT NOT NULL,
		  start_unix  INTEGER NOT NULL,
		  end_unix    INTEGER,
		  line        INTEGER NOT NULL,
		  FOREIGN KEY (path) REFERENCES files(path) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_entries_path
		ON entries(path);

		CREATE INDEX IF NOT EXISTS idx_entries_range
		ON entries(start_unix, end_unix);

		CREATE INDEX IF NOT EXISTS idx_entries_open
		ON entries(path, start_unix)
		WHERE end_unix IS NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
