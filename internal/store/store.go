// Package store implements the SQLite-backed storage engine for the four
// vault collections: snippets, subjects, settings, and tags.
//
// The tags collection is a denormalized usage-count cache over Snippet.Tags.
// Every mutation that changes a snippet's tag membership adjusts the counts
// inside the same transaction as the snippet write, so a failure partway
// through never leaves counts inconsistent with the snippet set.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ryanahq/ryana/internal/apperr"
)

// schemaVersion is the current schema generation. Upgrades are additive:
// initialization creates missing tables and indexes without touching
// existing data.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snippets (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	language    TEXT NOT NULL DEFAULT 'plaintext',
	subject     TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT 'code',
	code        TEXT NOT NULL,
	favourite   INTEGER NOT NULL DEFAULT 0,
	color_code  TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	errors      TEXT NOT NULL DEFAULT '[]',
	usage       TEXT NOT NULL DEFAULT '{}',
	analytics   TEXT NOT NULL DEFAULT '{}',
	versions    TEXT NOT NULL DEFAULT '[]',
	sync        TEXT NOT NULL DEFAULT '{}',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snippets_language   ON snippets(language);
CREATE INDEX IF NOT EXISTS idx_snippets_subject    ON snippets(subject);
CREATE INDEX IF NOT EXISTS idx_snippets_type       ON snippets(type);
CREATE INDEX IF NOT EXISTS idx_snippets_favourite  ON snippets(favourite);
CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
CREATE INDEX IF NOT EXISTS idx_snippets_updated_at ON snippets(updated_at);

CREATE TABLE IF NOT EXISTS subjects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	color_code  TEXT NOT NULL DEFAULT '',
	color_index INTEGER NOT NULL DEFAULT 1,
	description TEXT NOT NULL DEFAULT '',
	year        INTEGER NOT NULL DEFAULT 1,
	semester    INTEGER NOT NULL DEFAULT 1,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subjects_year     ON subjects(year);
CREATE INDEX IF NOT EXISTS idx_subjects_semester ON subjects(semester);

CREATE TABLE IF NOT EXISTS settings (
	id                 TEXT PRIMARY KEY,
	theme              TEXT NOT NULL DEFAULT 'light',
	sync_enabled       INTEGER NOT NULL DEFAULT 0,
	sync_provider      TEXT,
	auth_token         TEXT,
	default_language   TEXT NOT NULL DEFAULT 'javascript',
	auto_save          INTEGER NOT NULL DEFAULT 1,
	keyboard_shortcuts INTEGER NOT NULL DEFAULT 1,
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL UNIQUE,
	count     INTEGER NOT NULL,
	last_used INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tags_count     ON tags(count);
CREATE INDEX IF NOT EXISTS idx_tags_last_used ON tags(last_used);
`

// Store wraps a sql.DB with vault operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database, applies the schema, and seeds
// the singleton settings record on first run.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	s := &Store{conn: conn}
	if err := s.initMeta(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := s.seedSettings(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SchemaVersion returns the stored schema generation.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.conn.QueryRow(`SELECT version FROM schema_meta`).Scan(&v); err != nil {
		return 0, fmt.Errorf("store: read schema version: %w", err)
	}
	return v, nil
}

// initMeta records the schema version, bumping it on upgrade. Downgrades
// are left alone: an older binary keeps working against the extra tables.
func (s *Store) initMeta() error {
	var v int
	err := s.conn.QueryRow(`SELECT version FROM schema_meta`).Scan(&v)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.conn.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion)
	case err == nil && v < schemaVersion:
		_, err = s.conn.Exec(`UPDATE schema_meta SET version = ?`, schemaVersion)
	}
	if err != nil {
		return fmt.Errorf("store: init schema meta: %w", err)
	}
	return nil
}
