// Package sqlite contains SQLite implementations of the ingestion and run
// history ports.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS missions (
	glider_id   INTEGER NOT NULL,
	mission_id  INTEGER NOT NULL,
	output_dir  TEXT    NOT NULL,
	file_count  INTEGER NOT NULL DEFAULT 0,
	ingested_at TEXT    NOT NULL,
	PRIMARY KEY (glider_id, mission_id)
);

CREATE TABLE IF NOT EXISTS mission_files (
	glider_id   INTEGER NOT NULL,
	mission_id  INTEGER NOT NULL,
	path        TEXT    NOT NULL,
	size        INTEGER NOT NULL,
	modified_at TEXT    NOT NULL,
	PRIMARY KEY (glider_id, mission_id, path),
	FOREIGN KEY (glider_id, mission_id)
		REFERENCES missions (glider_id, mission_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT    PRIMARY KEY,
	started_at  TEXT    NOT NULL,
	finished_at TEXT    NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	report      TEXT    NOT NULL
);
`

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}
