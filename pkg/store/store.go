// Package store persists scraped tariff records into SQLite with
// content-hash deduplication, append-only versioning and a normalized
// HS hierarchy.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS sections (
	code  TEXT PRIMARY KEY,
	label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chapters (
	code         TEXT PRIMARY KEY,
	section_code TEXT REFERENCES sections(code),
	label        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hs4_nodes (
	code         TEXT PRIMARY KEY,
	chapter_code TEXT REFERENCES chapters(code),
	label        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hs6_nodes (
	code     TEXT PRIMARY KEY,
	hs4_code TEXT REFERENCES hs4_nodes(code),
	label    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hs_products (
	hs10            TEXT PRIMARY KEY,
	hs6_code        TEXT REFERENCES hs6_nodes(code),
	hs8_code        TEXT NOT NULL,
	hs8_label       TEXT NOT NULL,
	hs10_label      TEXT NOT NULL,
	designation     TEXT NOT NULL,
	unit_of_measure TEXT NOT NULL,
	taxes           TEXT NOT NULL,
	documents       TEXT NOT NULL,
	agreements      TEXT NOT NULL,
	duty_history    TEXT NOT NULL,
	status          TEXT NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scraped_versions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tariff_code  TEXT NOT NULL,
	version      INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	payload      TEXT NOT NULL,
	scraped_at   DATETIME NOT NULL,
	UNIQUE (tariff_code, content_hash),
	UNIQUE (tariff_code, version)
);

CREATE INDEX IF NOT EXISTS idx_versions_code ON scraped_versions(tariff_code, scraped_at);

CREATE TABLE IF NOT EXISTS audit_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	tariff_code TEXT NOT NULL,
	run_id      TEXT NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT,
	duration_ms INTEGER NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_log(run_id);
`

// VersionedStore is the SQLite-backed persistence layer. Safe for use from
// multiple goroutines; SQLite serializes writers and WAL mode keeps readers
// unblocked.
type VersionedStore struct {
	db        *sql.DB
	batchSize int
	log       *logrus.Entry
}

// Open opens (or creates) the database at cfg.DBPath and applies the schema
func Open(cfg config.StoreConfig, log *logrus.Entry) (*VersionedStore, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Immediate transactions take the write lock at BEGIN, so concurrent
	// savers queue on busy_timeout instead of failing mid-transaction on a
	// stale read snapshot.
	db, err := sql.Open("sqlite", cfg.DBPath+"?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &VersionedStore{db: db, batchSize: cfg.CommitBatchSize, log: log}, nil
}

// Close closes the underlying database
func (s *VersionedStore) Close() error {
	return s.db.Close()
}
